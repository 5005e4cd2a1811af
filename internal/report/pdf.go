package report

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/services"
)

const nextSteps = "Next steps: deploy the dashboard, automate this report, and run targeted promotions for the top products."

var (
	accent = &props.Color{Red: 31, Green: 119, Blue: 180}
	muted  = &props.Color{Red: 100, Green: 116, Blue: 139}
)

// BuildPDF renders the executive summary: KPIs, narrative takeaways, the
// monthly trend and top products charts.
func BuildPDF(snap *services.Snapshot, title string, renderer charts.Renderer) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		WithDefaultFont(&props.Font{Family: fontfamily.Arial, Size: 10}).
		Build()

	m := maroto.New(cfg)
	addHeader(m, title, snap)

	if snap.HasData() {
		addKPIs(m, snap)
	}

	addHeading(m, "Top takeaways")
	for _, line := range Takeaways(snap) {
		m.AddRow(7, col.New(12).Add(text.New("- "+line, props.Text{Size: 10, Left: 2})))
	}
	m.AddRow(4)

	if snap.HasData() {
		data := ChartData(snap)
		for _, kind := range []charts.Kind{charts.KindMonthlyTrend, charts.KindTopProducts} {
			png, err := renderer.PNG(kind, data)
			if err != nil {
				return nil, fmt.Errorf("render %s: %w", kind, err)
			}
			m.AddRow(80, col.New(12).Add(image.NewFromBytes(png, extension.Png, props.Rect{Center: true, Percent: 100})))
			m.AddRow(4)
		}
	}

	m.AddRow(12, col.New(12).Add(text.New(nextSteps, props.Text{Size: 10})))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func addHeader(m core.Maroto, title string, snap *services.Snapshot) {
	m.AddRow(16, col.New(12).Add(text.New(title, props.Text{
		Size:  16,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: accent,
	})))
	m.AddRow(8, col.New(12).Add(text.New(
		"Generated "+snap.GeneratedAt.Format("2006-01-02 15:04 MST"),
		props.Text{Size: 9, Align: align.Center, Color: muted},
	)))
	m.AddRow(4)
}

func addHeading(m core.Maroto, heading string) {
	m.AddRow(9, col.New(12).Add(text.New(heading, props.Text{
		Size:  12,
		Style: fontstyle.Bold,
	})))
}

func addKPIs(m core.Maroto, snap *services.Snapshot) {
	k := snap.KPIs
	cells := []struct{ label, value string }{
		{"Total Sales", FormatMoney(k.TotalSales)},
		{"Total Profit", FormatMoney(k.TotalProfit)},
		{"Orders", fmt.Sprintf("%d", k.Orders)},
		{"Avg Order Value", FormatMoney(k.AvgOrderValue)},
		{"Profit Margin", FormatPercent(k.ProfitMargin)},
	}

	labels := make([]core.Col, 0, len(cells)+1)
	values := make([]core.Col, 0, len(cells)+1)
	for _, c := range cells {
		labels = append(labels, col.New(2).Add(text.New(c.label, props.Text{Size: 8, Align: align.Center, Color: muted})))
		values = append(values, col.New(2).Add(text.New(c.value, props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Center})))
	}
	// six 2-wide columns fill the 12-unit grid
	labels = append(labels, col.New(2).Add(text.New("Order Lines", props.Text{Size: 8, Align: align.Center, Color: muted})))
	values = append(values, col.New(2).Add(text.New(fmt.Sprintf("%d", snap.Matched), props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Center})))

	m.AddRow(6, labels...)
	m.AddRow(9, values...)
	m.AddRow(4)
}
