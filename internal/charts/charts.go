// Package charts renders the dashboard figures as PNG images.
package charts

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"superstore-dashboard/internal/models"
)

// Kind names a chart as it appears in URLs and report file names.
type Kind string

const (
	KindMonthlyTrend  Kind = "monthly-trend"
	KindTopProducts   Kind = "top-products"
	KindSalesByRegion Kind = "sales-by-region"
	KindProfitVsSales Kind = "profit-vs-sales"
	KindForecast      Kind = "forecast"
)

var Kinds = []Kind{KindMonthlyTrend, KindTopProducts, KindSalesByRegion, KindProfitVsSales, KindForecast}

func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	return k, slices.Contains(Kinds, k)
}

var (
	salesColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	forecastColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	lossColor     = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Data is the input for every chart kind. Each kind reads only its fields.
type Data struct {
	Monthly     []models.MonthlyPoint
	TopProducts []models.CategoryTotal
	Regions     []models.CategoryTotal
	Scatter     []models.ScatterPoint
	Forecast    []models.ForecastPoint
	// ForecastNote replaces the forecast line when there is none.
	ForecastNote string
}

type Renderer struct {
	Width  vg.Length
	Height vg.Length
}

func NewRenderer() Renderer {
	return Renderer{Width: 10 * vg.Inch, Height: 5 * vg.Inch}
}

// Render writes kind as a PNG to w.
func (r Renderer) Render(w io.Writer, kind Kind, d Data) error {
	var (
		p   *plot.Plot
		err error
	)
	switch kind {
	case KindMonthlyTrend:
		p, err = monthlyTrend(d.Monthly)
	case KindTopProducts:
		p, err = topProducts(d.TopProducts)
	case KindSalesByRegion:
		p, err = salesByRegion(d.Regions)
	case KindProfitVsSales:
		p, err = profitVsSales(d.Scatter)
	case KindForecast:
		p, err = forecastChart(d.Monthly, d.Forecast, d.ForecastNote)
	default:
		return fmt.Errorf("unknown chart %q", kind)
	}
	if err != nil {
		return fmt.Errorf("build %s chart: %w", kind, err)
	}
	return r.write(w, p)
}

// PNG renders kind into memory.
func (r Renderer) PNG(kind Kind, d Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, kind, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r Renderer) write(w io.Writer, p *plot.Plot) error {
	width, height := r.Width, r.Height
	if width <= 0 || height <= 0 {
		width, height = 10*vg.Inch, 5*vg.Inch
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}

// placeholder is a titled, empty chart carrying a single message.
func placeholder(title, message string) (*plot.Plot, error) {
	p := newPlot(title, "", "")
	p.HideAxes()
	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0.5, Y: 0.5}},
		Labels: []string{message},
	})
	if err != nil {
		return nil, err
	}
	p.Add(labels)
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	return p, nil
}

func monthXYs(points []models.MonthlyPoint) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.Month.Unix())
		xys[i].Y = pt.Sales
	}
	return xys
}

func monthlyTrend(points []models.MonthlyPoint) (*plot.Plot, error) {
	const title = "Monthly Sales Trend"
	if len(points) == 0 {
		return placeholder(title, "No orders match the current filters")
	}

	p := newPlot(title, "Month", "Sales")
	p.X.Tick.Marker = plot.TimeTicks{Format: "Jan 2006"}
	p.Add(plotter.NewGrid())

	line, dots, err := plotter.NewLinePoints(monthXYs(points))
	if err != nil {
		return nil, err
	}
	line.Color = salesColor
	line.Width = vg.Points(2)
	dots.GlyphStyle.Color = salesColor
	dots.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(line, dots)
	return p, nil
}

func topProducts(totals []models.CategoryTotal) (*plot.Plot, error) {
	title := fmt.Sprintf("Top %d Products by Sales", len(totals))
	if len(totals) == 0 {
		return placeholder("Top Products by Sales", "No orders match the current filters")
	}

	// Largest at the top: horizontal bars are drawn bottom-up.
	values := make(plotter.Values, len(totals))
	names := make([]string, len(totals))
	for i, t := range totals {
		j := len(totals) - 1 - i
		values[j] = t.Sales
		names[j] = truncate(t.Key, 40)
	}

	p := newPlot(title, "Sales", "")
	bars, err := plotter.NewBarChart(values, vg.Points(14))
	if err != nil {
		return nil, err
	}
	bars.Horizontal = true
	bars.Color = salesColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(names...)
	return p, nil
}

func salesByRegion(totals []models.CategoryTotal) (*plot.Plot, error) {
	const title = "Sales Share by Region"
	var sum float64
	for _, t := range totals {
		sum += t.Sales
	}
	if len(totals) == 0 || sum == 0 {
		return placeholder(title, "No regional sales for the current filters")
	}

	values := make(plotter.Values, len(totals))
	names := make([]string, len(totals))
	labels := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(totals)),
		Labels: make([]string, len(totals)),
	}
	for i, t := range totals {
		values[i] = t.Sales
		names[i] = t.Key
		if names[i] == "" {
			names[i] = "(blank)"
		}
		labels.XYs[i] = plotter.XY{X: float64(i), Y: t.Sales}
		labels.Labels[i] = fmt.Sprintf("%.1f%%", 100*t.Sales/sum)
	}

	p := newPlot(title, "Region", "Sales")
	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, err
	}
	bars.Color = salesColor
	bars.LineStyle.Width = 0

	shares, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, err
	}
	for i := range shares.TextStyle {
		shares.TextStyle[i].XAlign = text.XCenter
	}
	shares.Offset = vg.Point{Y: vg.Points(4)}

	p.Add(bars, shares)
	p.NominalX(names...)
	return p, nil
}

func profitVsSales(points []models.ScatterPoint) (*plot.Plot, error) {
	const title = "Profit vs Sales"
	if len(points) == 0 {
		return placeholder(title, "No orders match the current filters")
	}

	gains := make(plotter.XYs, 0, len(points))
	losses := make(plotter.XYs, 0)
	for _, pt := range points {
		xy := plotter.XY{X: pt.Sales, Y: pt.Profit}
		if pt.Profit < 0 {
			losses = append(losses, xy)
		} else {
			gains = append(gains, xy)
		}
	}

	p := newPlot(title, "Sales", "Profit")
	p.Add(plotter.NewGrid())
	for _, series := range []struct {
		xys   plotter.XYs
		color color.Color
		name  string
	}{
		{gains, salesColor, "Profitable"},
		{losses, lossColor, "Loss-making"},
	} {
		if len(series.xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(series.xys)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = series.color
		s.GlyphStyle.Radius = vg.Points(2)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add(series.name, s)
	}
	p.Legend.Top = true
	return p, nil
}

func forecastChart(history []models.MonthlyPoint, predicted []models.ForecastPoint, note string) (*plot.Plot, error) {
	const title = "Sales Forecast"
	if len(history) == 0 {
		return placeholder(title, "No orders match the current filters")
	}

	p := newPlot(title, "Month", "Sales")
	p.X.Tick.Marker = plot.TimeTicks{Format: "Jan 2006"}
	p.Add(plotter.NewGrid())

	hist, err := plotter.NewLine(monthXYs(history))
	if err != nil {
		return nil, err
	}
	hist.Color = salesColor
	hist.Width = vg.Points(2)
	p.Add(hist)
	p.Legend.Add("Historical", hist)

	if len(predicted) > 0 {
		// Start the forecast line at the last actual month so the two connect.
		last := history[len(history)-1]
		xys := make(plotter.XYs, 0, len(predicted)+1)
		xys = append(xys, plotter.XY{X: float64(last.Month.Unix()), Y: last.Sales})
		for _, fp := range predicted {
			xys = append(xys, plotter.XY{X: float64(fp.Month.Unix()), Y: fp.Sales})
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		line.Color = forecastColor
		line.Width = vg.Points(2)
		line.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		p.Add(line)
		p.Legend.Add("Forecast", line)
	} else if note != "" {
		p.Title.Text = fmt.Sprintf("%s (%s)", title, note)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
