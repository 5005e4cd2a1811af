package analytics

import (
	"github.com/samber/lo"

	"superstore-dashboard/internal/models"
)

// ComputeKPIs summarises orders. Orders counts distinct order ids when the
// source had that column, rows otherwise. Ratios with a zero denominator
// are reported as 0.
func ComputeKPIs(orders []models.Order, hasOrderID bool) models.KPIs {
	var k models.KPIs
	for _, o := range orders {
		k.TotalSales += o.Sales
		k.TotalProfit += o.Profit
	}

	if hasOrderID {
		k.Orders = len(lo.UniqBy(orders, func(o models.Order) string { return o.OrderID }))
	} else {
		k.Orders = len(orders)
	}

	if k.Orders > 0 {
		k.AvgOrderValue = k.TotalSales / float64(k.Orders)
	}
	if k.TotalSales != 0 {
		k.ProfitMargin = k.TotalProfit / k.TotalSales
	}
	return k
}
