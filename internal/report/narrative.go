package report

import (
	"fmt"

	"superstore-dashboard/internal/forecast"
	"superstore-dashboard/internal/services"
)

// Takeaways are the narrative lines of the executive summary, computed from
// the snapshot rather than written by hand.
func Takeaways(snap *services.Snapshot) []string {
	if !snap.HasData() {
		return []string{"No sales data was available for this report."}
	}
	if snap.Matched == 0 {
		return []string{"No orders match the selected filters."}
	}

	var lines []string

	regions := 0
	for _, r := range snap.Regions {
		if r.Sales > 0 {
			regions++
		}
	}
	lines = append(lines, fmt.Sprintf(
		"We found %d top selling products and %d regions driving revenue.",
		len(snap.TopProducts), regions))

	if lead, share, ok := leadingRegion(snap); ok {
		lines = append(lines, fmt.Sprintf("%s leads with %s of sales.", lead, FormatPercent(share)))
	}

	losses := 0
	for _, o := range snap.Orders {
		if o.Profit < 0 {
			losses++
		}
	}
	lines = append(lines, fmt.Sprintf(
		"Overall margin is %s; %d of %d order lines lost money.",
		FormatPercent(snap.KPIs.ProfitMargin), losses, len(snap.Orders)))

	lines = append(lines, forecastLine(snap))
	return lines
}

func leadingRegion(snap *services.Snapshot) (string, float64, bool) {
	var total, best float64
	lead := ""
	for _, r := range snap.Regions {
		total += r.Sales
		if lead == "" || r.Sales > best {
			lead, best = r.Key, r.Sales
		}
	}
	if lead == "" || total <= 0 {
		return "", 0, false
	}
	return lead, best / total, true
}

// forecastLine compares the last forecast month with the last actual month.
func forecastLine(snap *services.Snapshot) string {
	res := snap.Forecast
	switch res.Status {
	case forecast.StatusOK:
	case forecast.StatusInsufficientData:
		return "Not enough monthly history to produce a forecast."
	default:
		return fmt.Sprintf("The forecast could not be computed (%s).", res.Reason)
	}

	if len(res.Points) == 0 || len(snap.Monthly) == 0 {
		return "The forecast is empty."
	}
	last := snap.Monthly[len(snap.Monthly)-1].Sales
	next := res.Points[len(res.Points)-1].Sales
	if last == 0 {
		return fmt.Sprintf("Short-term forecast reaches %s by %s.",
			FormatMoney(next), res.Points[len(res.Points)-1].Month.Format("Jan 2006"))
	}
	return fmt.Sprintf("Short-term forecast suggests a %s trend over the next %d months.",
		FormatPercent((next-last)/last), len(res.Points))
}
