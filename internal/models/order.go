package models

import "time"

// Order is one cleaned retail order line.
type Order struct {
	OrderID      string
	OrderDate    time.Time
	ShipDate     time.Time
	ShipMode     string
	CustomerID   string
	CustomerName string
	Segment      string
	Country      string
	City         string
	State        string
	PostalCode   string
	Region       string
	ProductID    string
	Category     string
	SubCategory  string
	ProductName  string
	Sales        float64
	Quantity     float64
	Discount     float64
	Profit       float64
	UnitPrice    float64
	ProfitMargin float64

	// Raw holds the trimmed source cells, aligned with Dataset.Columns.
	Raw []string
}

// DropCounts records why source rows were excluded during cleaning.
type DropCounts struct {
	BadDate   int `json:"bad_date"`
	BadNumber int `json:"bad_number"`
	Malformed int `json:"malformed"`
}

func (d DropCounts) Total() int {
	return d.BadDate + d.BadNumber + d.Malformed
}

// Dataset is the cleaned form of one source file.
type Dataset struct {
	Source          string
	Columns         []string
	Orders          []Order
	RowsRead        int
	Dropped         DropCounts
	HasOrderID      bool
	HasUnitPrice    bool
	HasProfitMargin bool
	LoadedAt        time.Time
}

func (d *Dataset) Empty() bool {
	return d == nil || len(d.Orders) == 0
}

type MonthlyPoint struct {
	Month time.Time `json:"month"`
	Sales float64   `json:"sales"`
}

type CategoryTotal struct {
	Key   string  `json:"key"`
	Sales float64 `json:"sales"`
}

type ScatterPoint struct {
	Sales  float64 `json:"sales"`
	Profit float64 `json:"profit"`
}

// KPIs is the scalar summary of a filtered dataset. ProfitMargin and
// AvgOrderValue are 0 when their denominator is 0.
type KPIs struct {
	TotalSales    float64 `json:"total_sales"`
	TotalProfit   float64 `json:"total_profit"`
	Orders        int     `json:"orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
	ProfitMargin  float64 `json:"profit_margin"`
}

type ForecastPoint struct {
	Month time.Time `json:"month"`
	Sales float64   `json:"predicted_sales"`
}
