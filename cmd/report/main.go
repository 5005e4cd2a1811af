// Command report runs the analytics pipeline once and writes charts, CSV
// extracts, a workbook and the PDF summary into an output directory.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"superstore-dashboard/internal/charts"
	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/loader"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/report"
	"superstore-dashboard/internal/services"
)

// Output file names, matching what analysts already link to.
var chartFiles = map[charts.Kind]string{
	charts.KindMonthlyTrend:  "sales_trend.png",
	charts.KindTopProducts:   "top_products.png",
	charts.KindSalesByRegion: "sales_by_region.png",
	charts.KindProfitVsSales: "profit_vs_sales.png",
	charts.KindForecast:      "sales_forecast.png",
}

const (
	forecastFile = "sales_forecast.csv"
	ordersFile   = "filtered_superstore.csv"
	workbookFile = "superstore_summary.xlsx"
	pdfFile      = "Insights_Report.pdf"
)

type options struct {
	configFile string
	data       string
	out        string
	title      string
	params     services.FilterParams
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the sales insights report from a superstore extract",
		Example: `  report --data data/Sample_Superstore.csv --out output
  report --region East --region West --from 2016-01-01 --horizon 6`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(opts.configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data") {
				cfg.Data.File = opts.data
			}
			if cmd.Flags().Changed("out") {
				cfg.Report.OutputDir = opts.out
			}
			if cmd.Flags().Changed("title") {
				cfg.Report.Title = opts.title
			}

			logger := observability.NewLogger(cfg.Logger)
			return run(cmd.Context(), cmd.OutOrStdout(), cfg, opts.params, logger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configFile, "config", os.Getenv("CONFIG_FILE"), "YAML configuration file")
	f.StringVar(&opts.data, "data", "", "source CSV, TSV or XLSX file (default from config)")
	f.StringVarP(&opts.out, "out", "o", "", "output directory (default from config)")
	f.StringVar(&opts.title, "title", "", "report title (default from config)")
	f.StringVar(&opts.params.From, "from", "", "first order date to include, YYYY-MM-DD")
	f.StringVar(&opts.params.To, "to", "", "last order date to include, YYYY-MM-DD")
	f.StringArrayVar(&opts.params.Regions, "region", nil, "region to include (repeatable; none means all)")
	f.StringVar(&opts.params.Mode, "regions", "", "region mode: all, none or only")
	f.IntVar(&opts.params.Top, "top", 0, "number of top products (default from config)")
	f.IntVar(&opts.params.Horizon, "horizon", 0, "forecast months (default from config)")

	return cmd
}

// run executes the pipeline for one filter and writes every artefact. A
// missing source still produces placeholder charts; the data exports are
// skipped with a warning.
func run(ctx context.Context, stdout io.Writer, cfg *config.Config, params services.FilterParams, logger *slog.Logger) error {
	q, err := params.Query()
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	store := services.NewStore(loader.New(logger), services.StoreOptions{
		CacheDir:     cfg.Data.CacheDir,
		CacheEnabled: cfg.Data.CacheEnabled,
		Logger:       logger,
	})
	analytics := services.NewAnalytics(store, cfg.Data.File, cfg.Analytics, logger, nil)

	snap, err := analytics.Snapshot(ctx, q)
	if err != nil {
		return fmt.Errorf("compute snapshot: %w", err)
	}

	outDir := cfg.Report.OutputDir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	renderer := charts.NewRenderer()
	if err := writeCharts(ctx, outDir, renderer, report.ChartData(snap)); err != nil {
		return err
	}

	if !snap.HasData() {
		logger.Warn("no data: exports skipped", "source", cfg.Data.File, "reason", snap.Reason)
		fmt.Fprintf(stdout, "No sales data available (%s); wrote placeholder charts to %s\n", snap.Reason, outDir)
		return nil
	}

	exports := []struct {
		name  string
		write func(*bytes.Buffer) error
	}{
		{forecastFile, func(b *bytes.Buffer) error { return report.WriteForecastCSV(b, snap.Forecast.Points) }},
		{ordersFile, func(b *bytes.Buffer) error { return report.WriteOrdersCSV(b, snap.Dataset, snap.Orders) }},
		{workbookFile, func(b *bytes.Buffer) error { return report.WriteWorkbook(b, snap, cfg.Report.Title) }},
		{pdfFile, func(b *bytes.Buffer) error {
			pdf, err := report.BuildPDF(snap, cfg.Report.Title, renderer)
			if err != nil {
				return err
			}
			_, err = b.Write(pdf)
			return err
		}},
	}
	for _, e := range exports {
		var buf bytes.Buffer
		if err := e.write(&buf); err != nil {
			return fmt.Errorf("build %s: %w", e.name, err)
		}
		if err := os.WriteFile(filepath.Join(outDir, e.name), buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", e.name, err)
		}
	}

	for _, line := range report.Takeaways(snap) {
		fmt.Fprintln(stdout, "-", line)
	}
	fmt.Fprintf(stdout, "Saved %s\n", filepath.Join(outDir, pdfFile))
	return nil
}

func writeCharts(ctx context.Context, outDir string, renderer charts.Renderer, data charts.Data) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range charts.Kinds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			png, err := renderer.PNG(kind, data)
			if err != nil {
				return fmt.Errorf("render %s: %w", kind, err)
			}
			return os.WriteFile(filepath.Join(outDir, chartFiles[kind]), png, 0o644)
		})
	}
	return g.Wait()
}
