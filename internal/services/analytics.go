package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"superstore-dashboard/internal/analytics"
	"superstore-dashboard/internal/config"
	"superstore-dashboard/internal/forecast"
	"superstore-dashboard/internal/loader"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
)

// ErrNoData is returned when the source is missing, unreadable or has no
// usable rows.
var ErrNoData = errors.New("no data available")

type SnapshotStatus string

const (
	SnapshotOK     SnapshotStatus = "ok"
	SnapshotNoData SnapshotStatus = "no_data"
)

// Snapshot is everything the dashboard shows for one filter. It is computed
// per request and never shared.
type Snapshot struct {
	Status      SnapshotStatus         `json:"status"`
	Reason      string                 `json:"reason,omitempty"`
	KPIs        models.KPIs            `json:"kpis"`
	Monthly     []models.MonthlyPoint  `json:"monthly"`
	TopProducts []models.CategoryTotal `json:"top_products"`
	Regions     []models.CategoryTotal `json:"regions"`
	Scatter     []models.ScatterPoint  `json:"-"`
	Forecast    forecast.Result        `json:"forecast"`
	Matched     int                    `json:"matched"`
	Dataset     *models.Dataset        `json:"-"`
	Orders      []models.Order         `json:"-"`
	GeneratedAt time.Time              `json:"generated_at"`
	TopN        int                    `json:"top_n"`
	Horizon     int                    `json:"horizon"`
}

func (s *Snapshot) HasData() bool {
	return s != nil && s.Status == SnapshotOK
}

type FilterOptions struct {
	Regions []string  `json:"regions"`
	MinDate time.Time `json:"min_date"`
	MaxDate time.Time `json:"max_date"`
}

type Stats struct {
	Source         string            `json:"source"`
	Loaded         bool              `json:"loaded"`
	RowsRead       int               `json:"rows_read"`
	Orders         int               `json:"orders"`
	Dropped        models.DropCounts `json:"dropped"`
	Columns        []string          `json:"columns,omitempty"`
	LoadedAt       time.Time         `json:"loaded_at,omitzero"`
	CachedDatasets int               `json:"cached_datasets"`
}

type Analytics struct {
	store      *Store
	source     string
	defaults   config.AnalyticsConfig
	forecaster *forecast.Forecaster
	logger     *slog.Logger
	metrics    *observability.Metrics
}

func NewAnalytics(store *Store, source string, cfg config.AnalyticsConfig, logger *slog.Logger, metrics *observability.Metrics) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		store:      store,
		source:     source,
		defaults:   cfg,
		forecaster: forecast.New(cfg.ForecastMinPoints),
		logger:     logger,
		metrics:    metrics,
	}
}

func (a *Analytics) Source() string {
	return a.source
}

// Dataset returns the cleaned source, or ErrNoData when there is nothing to
// show.
func (a *Analytics) Dataset(ctx context.Context) (*models.Dataset, error) {
	ds, err := a.store.Get(ctx, a.source)
	if err != nil {
		if errors.Is(err, loader.ErrSourceUnavailable) {
			return nil, fmt.Errorf("%w: %w", ErrNoData, err)
		}
		return nil, err
	}
	if ds.Empty() {
		return nil, fmt.Errorf("%w: %s has no valid orders", ErrNoData, a.source)
	}
	return ds, nil
}

// Snapshot computes the dashboard state for q. A missing source is reported
// through Status rather than as an error.
func (a *Analytics) Snapshot(ctx context.Context, q Query) (*Snapshot, error) {
	ctx, span := observability.StartSpan(ctx, "services.Snapshot",
		attribute.String("regions", q.Filter.Regions.String()),
	)
	defer span.End()

	start := time.Now()
	defer func() { a.metrics.ObserveSnapshot(time.Since(start)) }()

	snap := &Snapshot{
		GeneratedAt: time.Now().UTC(),
		TopN:        q.TopN,
		Horizon:     q.Horizon,
	}
	if snap.TopN <= 0 {
		snap.TopN = a.defaults.TopN
	}
	if snap.Horizon <= 0 {
		snap.Horizon = a.defaults.ForecastHorizon
	}

	ds, err := a.Dataset(ctx)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			snap.Status = SnapshotNoData
			snap.Reason = err.Error()
			a.logger.WarnContext(ctx, "snapshot without data", "error", err)
			return snap, nil
		}
		observability.RecordError(span, err)
		return nil, err
	}

	orders := analytics.Apply(ds.Orders, q.Filter)
	snap.Status = SnapshotOK
	snap.Dataset = ds
	snap.Orders = orders
	snap.Matched = len(orders)
	span.SetAttributes(attribute.Int("matched", len(orders)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.KPIs = analytics.ComputeKPIs(orders, ds.HasOrderID)
		snap.TopProducts = analytics.TopN(orders, analytics.DimProduct, snap.TopN)
		snap.Regions = analytics.SalesByRegion(orders)
		snap.Scatter = analytics.ProfitVsSales(orders)
		return nil
	})
	g.Go(func() error {
		snap.Monthly = analytics.MonthlySales(orders)
		snap.Forecast = a.forecaster.Forecast(gctx, snap.Monthly, snap.Horizon)
		return nil
	})
	if err := g.Wait(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	a.metrics.ObserveForecast(string(snap.Forecast.Status))
	if !snap.Forecast.OK() {
		a.logger.InfoContext(ctx, "forecast unavailable",
			"status", snap.Forecast.Status,
			"reason", snap.Forecast.Reason,
		)
	}

	return snap, nil
}

// FilterOptions lists the values the filter controls can offer.
func (a *Analytics) FilterOptions(ctx context.Context) (FilterOptions, error) {
	ds, err := a.Dataset(ctx)
	if err != nil {
		return FilterOptions{}, err
	}
	minDate, maxDate := analytics.DateBounds(ds.Orders)
	return FilterOptions{
		Regions: analytics.Regions(ds.Orders),
		MinDate: minDate,
		MaxDate: maxDate,
	}, nil
}

// Stats reports what is loaded without triggering a load.
func (a *Analytics) Stats() Stats {
	st := Stats{
		Source:         a.source,
		CachedDatasets: a.store.Len(),
	}
	if ds, ok := a.store.Peek(a.source); ok {
		st.Loaded = true
		st.RowsRead = ds.RowsRead
		st.Orders = len(ds.Orders)
		st.Dropped = ds.Dropped
		st.Columns = ds.Columns
		st.LoadedAt = ds.LoadedAt
	}
	return st
}

// Reload discards the memoised dataset and reads the source again.
func (a *Analytics) Reload(ctx context.Context) (Stats, error) {
	if _, err := a.store.Reload(ctx, a.source); err != nil {
		if errors.Is(err, loader.ErrSourceUnavailable) {
			return a.Stats(), fmt.Errorf("%w: %w", ErrNoData, err)
		}
		return a.Stats(), err
	}
	a.logger.InfoContext(ctx, "dataset reloaded", "source", a.source)
	return a.Stats(), nil
}
