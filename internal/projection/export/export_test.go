package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/cashplan/internal/money"
	"github.com/odyssey-erp/cashplan/internal/projection"
)

func computeScenario(t *testing.T) *projection.Result {
	t.Helper()
	result, err := projection.Compute(projection.Input{
		ForecastSales: []float64{1200, 1100, 1200, 1100, 700},
		FixedExpenses: []float64{100, 100, 100, 100, 100},
	})
	require.NoError(t, err)
	return result
}

func TestWriteTableCSV(t *testing.T) {
	result := computeScenario(t)
	buf := &bytes.Buffer{}
	if err := WriteTableCSV(buf, result); err != nil {
		t.Fatalf("table csv error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) != len(result.Table)+1 {
		t.Fatalf("expected %d records, got %d", len(result.Table)+1, len(records))
	}
	require.Equal(t, []string{"Line", "Month 1", "Month 2", "Month 3", "Month 4", "Month 5", "TOTAL"}, records[0])
	require.Equal(t, []string{"Forecast sales", "1200.00", "1100.00", "1200.00", "1100.00", "700.00", "5300.00"}, records[1])
	require.Equal(t, []string{"", "", "", "", "", "", ""}, records[3])
	require.Equal(t, "Cumulative cash balance", records[len(records)-1][0])
}

func TestWriteIndicatorsCSV(t *testing.T) {
	result := computeScenario(t)
	buf := &bytes.Buffer{}
	require.NoError(t, WriteIndicatorsCSV(buf, result.Indicators))
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)
	require.Equal(t, []string{"Total Sales", "5300.00"}, records[1])
}

func TestWriteTableText(t *testing.T) {
	result := computeScenario(t)
	f, err := money.NewFormatter("en-US", "USD")
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	require.NoError(t, WriteTableText(buf, result, f))

	out := buf.String()
	require.Contains(t, out, "Forecast sales")
	require.Contains(t, out, "1,200.00")
	require.Contains(t, out, "5,300.00")
	require.Contains(t, out, "Total sales:")
	require.Contains(t, out, "$ 5,300.00")
	require.True(t, strings.HasSuffix(strings.TrimSpace(out), "%"))
}
