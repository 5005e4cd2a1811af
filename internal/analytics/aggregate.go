package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"

	"superstore-dashboard/internal/models"
)

// Dimension is a categorical order attribute that sales can be grouped by.
type Dimension string

const (
	DimProduct     Dimension = "product_name"
	DimCategory    Dimension = "category"
	DimSubCategory Dimension = "sub_category"
	DimRegion      Dimension = "region"
	DimState       Dimension = "state"
	DimCity        Dimension = "city"
	DimCustomer    Dimension = "customer_name"
	DimSegment     Dimension = "segment"
)

var dimensions = map[Dimension]func(models.Order) string{
	DimProduct:     func(o models.Order) string { return o.ProductName },
	DimCategory:    func(o models.Order) string { return o.Category },
	DimSubCategory: func(o models.Order) string { return o.SubCategory },
	DimRegion:      func(o models.Order) string { return o.Region },
	DimState:       func(o models.Order) string { return o.State },
	DimCity:        func(o models.Order) string { return o.City },
	DimCustomer:    func(o models.Order) string { return o.CustomerName },
	DimSegment:     func(o models.Order) string { return o.Segment },
}

func (d Dimension) Valid() bool {
	_, ok := dimensions[d]
	return ok
}

// MonthlySales sums sales per calendar month of the order date. Months with
// no orders are absent, not zero.
func MonthlySales(orders []models.Order) []models.MonthlyPoint {
	totals := make(map[time.Time]float64)
	for _, o := range orders {
		totals[truncateMonth(o.OrderDate)] += o.Sales
	}
	return sortedMonths(totals)
}

// RebucketMonthly sums points that fall in the same calendar month. Applied
// to MonthlySales output it returns the same sequence.
func RebucketMonthly(points []models.MonthlyPoint) []models.MonthlyPoint {
	totals := make(map[time.Time]float64, len(points))
	for _, p := range points {
		totals[truncateMonth(p.Month)] += p.Sales
	}
	return sortedMonths(totals)
}

func sortedMonths(totals map[time.Time]float64) []models.MonthlyPoint {
	out := make([]models.MonthlyPoint, 0, len(totals))
	for month, sales := range totals {
		out = append(out, models.MonthlyPoint{Month: month, Sales: sales})
	}
	slices.SortFunc(out, func(a, b models.MonthlyPoint) int {
		return a.Month.Compare(b.Month)
	})
	return out
}

// groupSales sums sales per dimension value, keeping keys in order of first
// appearance.
func groupSales(orders []models.Order, key func(models.Order) string) []models.CategoryTotal {
	index := make(map[string]int)
	var out []models.CategoryTotal
	for _, o := range orders {
		k := key(o)
		i, seen := index[k]
		if !seen {
			i = len(out)
			index[k] = i
			out = append(out, models.CategoryTotal{Key: k})
		}
		out[i].Sales += o.Sales
	}
	return out
}

// TopN ranks the values of dim by summed sales, descending. It returns at
// most n entries; equal totals keep their order of first appearance.
// An unknown dimension or n < 1 yields nil.
func TopN(orders []models.Order, dim Dimension, n int) []models.CategoryTotal {
	key, ok := dimensions[dim]
	if !ok || n < 1 {
		return nil
	}
	totals := groupSales(orders, key)
	slices.SortStableFunc(totals, func(a, b models.CategoryTotal) int {
		return cmp.Compare(b.Sales, a.Sales)
	})
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

// SalesBy is the full categorical aggregate of dim, sorted by key.
func SalesBy(orders []models.Order, dim Dimension) []models.CategoryTotal {
	key, ok := dimensions[dim]
	if !ok {
		return nil
	}
	totals := groupSales(orders, key)
	slices.SortFunc(totals, func(a, b models.CategoryTotal) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return totals
}

func SalesByRegion(orders []models.Order) []models.CategoryTotal {
	return SalesBy(orders, DimRegion)
}

func ProfitVsSales(orders []models.Order) []models.ScatterPoint {
	return lo.Map(orders, func(o models.Order, _ int) models.ScatterPoint {
		return models.ScatterPoint{Sales: o.Sales, Profit: o.Profit}
	})
}

// Regions lists the distinct non-empty regions, sorted.
func Regions(orders []models.Order) []string {
	out := lo.Uniq(lo.FilterMap(orders, func(o models.Order, _ int) (string, bool) {
		return o.Region, o.Region != ""
	}))
	slices.Sort(out)
	return out
}

// DateBounds returns the earliest and latest order dates. Both are zero for
// an empty slice.
func DateBounds(orders []models.Order) (minDate, maxDate time.Time) {
	for i, o := range orders {
		if i == 0 || o.OrderDate.Before(minDate) {
			minDate = o.OrderDate
		}
		if i == 0 || o.OrderDate.After(maxDate) {
			maxDate = o.OrderDate
		}
	}
	return minDate, maxDate
}
