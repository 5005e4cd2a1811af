package loader

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"superstore-dashboard/internal/models"
)

// Normalised column names the cleaner understands.
const (
	ColOrderID      = "order_id"
	ColOrderDate    = "order_date"
	ColShipDate     = "ship_date"
	ColShipMode     = "ship_mode"
	ColCustomerID   = "customer_id"
	ColCustomerName = "customer_name"
	ColSegment      = "segment"
	ColCountry      = "country"
	ColCity         = "city"
	ColState        = "state"
	ColPostalCode   = "postal_code"
	ColRegion       = "region"
	ColProductID    = "product_id"
	ColCategory     = "category"
	ColSubCategory  = "sub_category"
	ColProductName  = "product_name"
	ColSales        = "sales"
	ColQuantity     = "quantity"
	ColDiscount     = "discount"
	ColProfit       = "profit"

	ColUnitPrice    = "unit_price"
	ColProfitMargin = "profit_margin"
)

type dropReason int

const (
	keep dropReason = iota
	dropBadDate
	dropBadNumber
	dropMalformed
)

var (
	errEmptyDate = errors.New("empty date")
	errNotFinite = errors.New("number is not finite")
)

// NormalizeColumn maps a free-form header to its snake_case key:
// "  Order Date " -> "order_date", "Sub-Category" -> "sub_category".
func NormalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

// schema indexes the normalised header of one source.
type schema struct {
	columns []string
	index   map[string]int
}

func newSchema(header []string) schema {
	s := schema{
		columns: make([]string, len(header)),
		index:   make(map[string]int, len(header)),
	}
	for i, h := range header {
		key := NormalizeColumn(h)
		s.columns[i] = key
		if _, dup := s.index[key]; !dup {
			s.index[key] = i
		}
	}
	return s
}

func (s schema) has(cols ...string) bool {
	for _, c := range cols {
		if _, ok := s.index[c]; !ok {
			return false
		}
	}
	return true
}

func (s schema) get(row []string, col string) string {
	i, ok := s.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// cleanRow turns one source row into an Order. Rows shorter than the header
// are padded; Excel drops trailing empty cells.
func (s schema) cleanRow(row []string) (models.Order, dropReason) {
	if len(row) > len(s.columns) {
		return models.Order{}, dropMalformed
	}

	raw := make([]string, len(s.columns))
	for i, cell := range row {
		raw[i] = strings.TrimSpace(cell)
	}

	orderDate, err := parseDate(s.get(raw, ColOrderDate))
	if err != nil {
		return models.Order{}, dropBadDate
	}

	var o models.Order
	o.OrderDate = orderDate
	o.Raw = raw

	for _, m := range []struct {
		col string
		dst *float64
	}{
		{ColSales, &o.Sales},
		{ColQuantity, &o.Quantity},
		{ColDiscount, &o.Discount},
		{ColProfit, &o.Profit},
	} {
		v, err := parseNumber(s.get(raw, m.col))
		if err != nil {
			return models.Order{}, dropBadNumber
		}
		*m.dst = v
	}

	if shipDate, err := parseDate(s.get(raw, ColShipDate)); err == nil {
		o.ShipDate = shipDate
	}

	o.OrderID = s.get(raw, ColOrderID)
	o.ShipMode = s.get(raw, ColShipMode)
	o.CustomerID = s.get(raw, ColCustomerID)
	o.CustomerName = s.get(raw, ColCustomerName)
	o.Segment = s.get(raw, ColSegment)
	o.Country = s.get(raw, ColCountry)
	o.City = s.get(raw, ColCity)
	o.State = s.get(raw, ColState)
	o.PostalCode = s.get(raw, ColPostalCode)
	o.Region = s.get(raw, ColRegion)
	o.ProductID = s.get(raw, ColProductID)
	o.Category = s.get(raw, ColCategory)
	o.SubCategory = s.get(raw, ColSubCategory)
	o.ProductName = s.get(raw, ColProductName)

	if s.has(ColSales, ColQuantity) {
		o.UnitPrice = safeDiv(o.Sales, o.Quantity)
	}
	if s.has(ColProfit, ColSales) {
		o.ProfitMargin = safeDiv(o.Profit, o.Sales)
	}

	return o, keep
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errEmptyDate
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseNumber accepts plain and currency-formatted numbers ("$1,234.50").
// An empty cell is 0.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
