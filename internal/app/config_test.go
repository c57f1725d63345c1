package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/cashplan/testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("does-not-exist.env")
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, "pt-BR", cfg.DisplayLocale)
	require.Equal(t, "BRL", cfg.DisplayCurrency)
	require.Equal(t, OutputTable, cfg.OutputFormat)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DISPLAY_LOCALE", "en-US")
	t.Setenv("DISPLAY_CURRENCY", "USD")
	t.Setenv("OUTPUT_FORMAT", "json")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, "en-US", cfg.DisplayLocale)
	require.Equal(t, OutputJSON, cfg.OutputFormat)
}

func TestLoadConfigRejectsUnknownOutput(t *testing.T) {
	t.Setenv("OUTPUT_FORMAT", "xml")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestNewLoggerFormats(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newLogger(&Config{LogFormat: "json", LogLevel: "debug"}, buf)
	logger.Debug("projection computed", "horizon", 5)
	require.True(t, strings.HasPrefix(buf.String(), "{"))
	require.Contains(t, buf.String(), `"horizon":5`)

	buf.Reset()
	logger = newLogger(&Config{LogFormat: "pretty", LogLevel: "warn"}, buf)
	logger.Info("hidden")
	require.Empty(t, buf.String())
	logger.Warn("shown")
	require.Contains(t, buf.String(), "msg=shown")
}

func TestInTestMode(t *testing.T) {
	require.True(t, InTestMode())

	t.Cleanup(RefreshTestMode)
	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	require.False(t, InTestMode())
}
