package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("CASHPLAN_TEST_MODE", "1")
		for _, key := range []string{"OUTPUT_FORMAT", "DISPLAY_LOCALE", "DISPLAY_CURRENCY", "APP_ENV"} {
			_ = os.Unsetenv(key)
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
