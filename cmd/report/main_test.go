package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersCSV = `Order ID,Order Date,Region,Product Name,Sales,Quantity,Profit
A,2024-01-05,East,Chair,100,2,20
B,2024-01-20,West,Desk,50,1,-5
C,2024-02-10,East,Chair,200,4,40
D,2024-03-03,Central,Lamp,80,2,12
E,2024-04-11,West,Desk,120,2,30
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_CACHE_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReportWritesEveryArtefact(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(data, []byte(ordersCSV), 0o644))
	outDir := filepath.Join(dir, "out")

	stdout, err := execute(t, "--data", data, "--out", outDir, "--horizon", "2")
	require.NoError(t, err)

	for _, name := range append(chartNames(), forecastFile, ordersFile, workbookFile, pdfFile) {
		info, err := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	forecast, err := os.ReadFile(filepath.Join(outDir, forecastFile))
	require.NoError(t, err)
	assert.Contains(t, string(forecast), "month,predicted_sales\n2024-05-01,")

	assert.Contains(t, stdout, "Saved "+filepath.Join(outDir, pdfFile))
	assert.Contains(t, stdout, "regions driving revenue")
}

func TestReportAppliesFilter(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(data, []byte(ordersCSV), 0o644))
	outDir := filepath.Join(dir, "out")

	_, err := execute(t, "--data", data, "--out", outDir, "--region", "West")
	require.NoError(t, err)

	orders, err := os.ReadFile(filepath.Join(outDir, ordersFile))
	require.NoError(t, err)
	assert.Len(t, bytes.Split(bytes.TrimSpace(orders), []byte("\n")), 3)
	assert.NotContains(t, string(orders), "East")
}

func TestReportWithoutData(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")

	stdout, err := execute(t, "--data", filepath.Join(dir, "missing.csv"), "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "No sales data available")

	for _, name := range chartNames() {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
	assert.NoFileExists(t, filepath.Join(outDir, pdfFile))
}

func TestReportRejectsBadFlags(t *testing.T) {
	tests := [][]string{
		{"--from", "2024/01/01"},
		{"--from", "2024-03-01", "--to", "2024-01-01"},
		{"--top", "1000"},
		{"--regions", "some"},
		{"unexpected-arg"},
	}
	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			_, err := execute(t, append(args, "--out", t.TempDir())...)
			assert.Error(t, err)
		})
	}
}

func chartNames() []string {
	names := make([]string, 0, len(chartFiles))
	for _, name := range chartFiles {
		names = append(names, name)
	}
	return names
}
