package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"superstore-dashboard/internal/services"
)

const (
	sheetSummary  = "Summary"
	sheetMonthly  = "Monthly"
	sheetProducts = "Top Products"
	sheetRegions  = "Regions"
	sheetForecast = "Forecast"
	sheetOrders   = "Orders"
)

type sheet struct {
	name   string
	header []string
	rows   [][]any
}

// WriteWorkbook writes the snapshot as an XLSX file with one sheet per view.
func WriteWorkbook(w io.Writer, snap *services.Snapshot, title string) error {
	if !snap.HasData() {
		return fmt.Errorf("write workbook: %w", services.ErrNoData)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1F77B4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("create money style: %w", err)
	}

	for i, s := range workbookSheets(snap) {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %q: %w", s.name, err)
		}
		if err := writeSheet(f, s, headerStyle, moneyStyle); err != nil {
			return fmt.Errorf("write sheet %q: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   title,
		Created: snap.GeneratedAt.Format(time.RFC3339),
		Creator: "superstore-dashboard",
	}); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func workbookSheets(snap *services.Snapshot) []sheet {
	k := snap.KPIs
	summary := sheet{
		name:   sheetSummary,
		header: []string{"Metric", "Value"},
		rows: [][]any{
			{"Total Sales", k.TotalSales},
			{"Total Profit", k.TotalProfit},
			{"Orders", k.Orders},
			{"Average Order Value", k.AvgOrderValue},
			{"Profit Margin", k.ProfitMargin},
			{"Forecast Status", string(snap.Forecast.Status)},
		},
	}

	monthly := sheet{name: sheetMonthly, header: []string{"Month", "Sales"}}
	for _, p := range snap.Monthly {
		monthly.rows = append(monthly.rows, []any{p.Month.Format(dateLayout), p.Sales})
	}

	products := sheet{name: sheetProducts, header: []string{"Product", "Sales"}}
	for _, p := range snap.TopProducts {
		products.rows = append(products.rows, []any{p.Key, p.Sales})
	}

	regions := sheet{name: sheetRegions, header: []string{"Region", "Sales"}}
	for _, r := range snap.Regions {
		regions.rows = append(regions.rows, []any{r.Key, r.Sales})
	}

	fc := sheet{name: sheetForecast, header: []string{"Month", "Predicted Sales"}}
	for _, p := range snap.Forecast.Points {
		fc.rows = append(fc.rows, []any{p.Month.Format(dateLayout), p.Sales})
	}

	header, table := orderTable(snap.Dataset, snap.Orders)
	orders := sheet{name: sheetOrders, header: header, rows: make([][]any, len(table))}
	for i, row := range table {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		orders.rows[i] = cells
	}

	return []sheet{summary, monthly, products, regions, fc, orders}
}

func writeSheet(f *excelize.File, s sheet, headerStyle, moneyStyle int) error {
	header := make([]any, len(s.header))
	for i, h := range s.header {
		header[i] = h
	}
	if err := f.SetSheetRow(s.name, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(max(len(s.header), 1), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}

	if s.name != sheetOrders && len(s.rows) > 0 {
		top, _ := excelize.CoordinatesToCellName(2, 2)
		bottom, _ := excelize.CoordinatesToCellName(2, len(s.rows)+1)
		if err := f.SetCellStyle(s.name, top, bottom, moneyStyle); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(s.name, "A", "A", 28); err != nil {
		return err
	}
	return f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
