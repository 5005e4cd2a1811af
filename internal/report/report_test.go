package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/loader"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

const sourceCSV = `Order ID,Order Date,Ship Date,Region,Product Name,Sales,Quantity,Profit
A,01/05/2024,01/09/2024,East,Chair,100,2,20
B,2024-01-20,,West,Desk,50,1,-5
C,2024-02-10,,East,Chair,200,4,40
D,2024-03-02,,East,Lamp,120,3,12
E,2024-04-15,,West,Desk,300,2,60
`

func snapshot(t *testing.T, content string) *services.Snapshot {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	store := services.NewStore(loader.New(nil), services.StoreOptions{})
	a := services.NewAnalytics(store, path, config.Default().Analytics, nil, nil)
	snap, err := a.Snapshot(context.Background(), services.Query{})
	require.NoError(t, err)
	return snap
}

func TestWriteOrdersCSV(t *testing.T) {
	snap := snapshot(t, sourceCSV)

	var buf bytes.Buffer
	require.NoError(t, WriteOrdersCSV(&buf, snap.Dataset, snap.Orders))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)

	assert.Equal(t, []string{
		"order_id", "order_date", "ship_date", "region", "product_name",
		"sales", "quantity", "profit", "unit_price", "profit_margin",
	}, records[0])
	assert.Equal(t, []string{"A", "2024-01-05", "2024-01-09", "East", "Chair", "100", "2", "20", "50", "0.2"}, records[1])
	assert.Equal(t, "", records[2][2])
}

func TestWriteOrdersCSVWithoutDerivedColumns(t *testing.T) {
	snap := snapshot(t, "Order Date,Sales\n2024-01-01,5\n")

	var buf bytes.Buffer
	require.NoError(t, WriteOrdersCSV(&buf, snap.Dataset, snap.Orders))
	assert.Equal(t, "order_date,sales\n2024-01-01,5\n", buf.String())

	assert.Error(t, WriteOrdersCSV(&buf, nil, nil))
}

func TestWriteForecastCSV(t *testing.T) {
	points := []models.ForecastPoint{
		{Month: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Sales: 310.5},
		{Month: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Sales: -2},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteForecastCSV(&buf, points))
	assert.Equal(t, "month,predicted_sales\n2024-05-01,310.5\n2024-06-01,-2\n", buf.String())
}

func TestWriteWorkbook(t *testing.T) {
	snap := snapshot(t, sourceCSV)

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, snap, "Test Report"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Monthly", "Top Products", "Regions", "Forecast", "Orders"}, f.GetSheetList())

	total, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "770.00", total)

	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	assert.Len(t, rows, 6)

	monthly, err := f.GetRows("Monthly")
	require.NoError(t, err)
	assert.Len(t, monthly, 5)

	forecastRows, err := f.GetRows("Forecast")
	require.NoError(t, err)
	assert.Len(t, forecastRows, 1+snap.Horizon)
}

func TestWriteWorkbookNoData(t *testing.T) {
	snap := &services.Snapshot{Status: services.SnapshotNoData}
	assert.ErrorIs(t, WriteWorkbook(&bytes.Buffer{}, snap, "x"), services.ErrNoData)
}

func TestBuildPDF(t *testing.T) {
	r := charts.Renderer{Width: 400, Height: 200}

	out, err := BuildPDF(snapshot(t, sourceCSV), "Executive Summary", r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty, err := BuildPDF(&services.Snapshot{Status: services.SnapshotNoData}, "Executive Summary", r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(empty, []byte("%PDF")))
}

func TestTakeaways(t *testing.T) {
	lines := Takeaways(snapshot(t, sourceCSV))
	require.Len(t, lines, 4)
	assert.Equal(t, "We found 3 top selling products and 2 regions driving revenue.", lines[0])
	assert.Equal(t, "East leads with 54.5% of sales.", lines[1])
	assert.Contains(t, lines[2], "1 of 5 order lines lost money")
	assert.True(t, strings.HasPrefix(lines[3], "Short-term forecast suggests"), lines[3])

	assert.Equal(t, []string{"No sales data was available for this report."},
		Takeaways(&services.Snapshot{Status: services.SnapshotNoData}))

	short := Takeaways(snapshot(t, "Order Date,Sales\n2024-01-01,5\n"))
	assert.Equal(t, "Not enough monthly history to produce a forecast.", short[len(short)-1])
}

func TestFormatMoney(t *testing.T) {
	tests := map[float64]string{
		0:          "$0.00",
		5:          "$5.00",
		1234.5:     "$1,234.50",
		-98765.432: "-$98,765.43",
		1000000:    "$1,000,000.00",
		0.005:      "$0.01",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatMoney(in), "input %v", in)
	}
	assert.Equal(t, "15.7%", FormatPercent(0.15714))
}
