// Package report writes the downloadable artefacts: delimited exports, an
// Excel workbook and a PDF executive summary.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"superstore-dashboard/internal/loader"
	"superstore-dashboard/internal/models"
)

const dateLayout = "2006-01-02"

// orderTable flattens cleaned orders into rows under the dataset's normalised
// header, adding the derived columns the source supports.
func orderTable(ds *models.Dataset, orders []models.Order) ([]string, [][]string) {
	header := slices.Clone(ds.Columns)
	addUnitPrice := ds.HasUnitPrice && !slices.Contains(header, loader.ColUnitPrice)
	addMargin := ds.HasProfitMargin && !slices.Contains(header, loader.ColProfitMargin)
	if addUnitPrice {
		header = append(header, loader.ColUnitPrice)
	}
	if addMargin {
		header = append(header, loader.ColProfitMargin)
	}

	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		row := make([]string, len(header))
		copy(row, o.Raw)
		for i, col := range ds.Columns {
			switch col {
			case loader.ColOrderDate:
				row[i] = o.OrderDate.Format(dateLayout)
			case loader.ColShipDate:
				if !o.ShipDate.IsZero() {
					row[i] = o.ShipDate.Format(dateLayout)
				}
			}
		}
		n := len(ds.Columns)
		if addUnitPrice {
			row[n] = formatFloat(o.UnitPrice)
			n++
		}
		if addMargin {
			row[n] = formatFloat(o.ProfitMargin)
		}
		rows = append(rows, row)
	}
	return header, rows
}

// WriteOrdersCSV writes orders with their cleaned dates and derived fields.
func WriteOrdersCSV(w io.Writer, ds *models.Dataset, orders []models.Order) error {
	if ds == nil {
		return fmt.Errorf("write orders: no dataset")
	}
	header, rows := orderTable(ds, orders)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write orders: %w", err)
	}
	return nil
}

// WriteForecastCSV writes one "month,predicted_sales" line per point.
func WriteForecastCSV(w io.Writer, points []models.ForecastPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"month", "predicted_sales"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{p.Month.Format(dateLayout), formatFloat(p.Sales)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
