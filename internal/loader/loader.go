// Package loader reads a tabular sales source and cleans it into orders.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
)

const (
	batchSize  = 2000
	maxWorkers = 10
)

// ErrSourceUnavailable marks a source that is missing, unreadable or has no
// header. Callers treat it as "no data", not as a crash.
var ErrSourceUnavailable = errors.New("data source unavailable")

type Loader struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads path and returns its cleaned orders. Rows with unparseable order
// dates or measures are dropped and only counted.
func (l *Loader) Load(ctx context.Context, path string) (*models.Dataset, error) {
	ctx, span := observability.StartSpan(ctx, "loader.Load", attribute.String("source", path))
	defer span.End()

	start := time.Now()

	header, rows, err := readTable(ctx, path)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	ds, err := clean(ctx, header, rows)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	ds.Source = path
	ds.LoadedAt = time.Now()

	span.SetAttributes(
		attribute.Int("rows.read", ds.RowsRead),
		attribute.Int("rows.kept", len(ds.Orders)),
		attribute.Int("rows.dropped", ds.Dropped.Total()),
	)

	l.logger.Info("source cleaned",
		"source", path,
		"rows_read", ds.RowsRead,
		"rows_kept", len(ds.Orders),
		"dropped_bad_date", ds.Dropped.BadDate,
		"dropped_bad_number", ds.Dropped.BadNumber,
		"dropped_malformed", ds.Dropped.Malformed,
		"duration", time.Since(start),
	)

	return ds, nil
}

func readTable(ctx context.Context, path string) ([]string, [][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(path)
	case ".tsv":
		return readDelimited(ctx, path, '\t')
	default:
		return readDelimited(ctx, path, ',')
	}
}

func readDelimited(ctx context.Context, path string, comma rune) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: %s is empty", ErrSourceUnavailable, path)
		}
		return nil, nil, fmt.Errorf("%w: read header: %w", ErrSourceUnavailable, err)
	}

	var rows [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				// keep the slot so the row is counted as malformed
				rows = append(rows, nil)
				continue
			}
			return nil, nil, fmt.Errorf("%w: read %s: %w", ErrSourceUnavailable, path, err)
		}
		rows = append(rows, record)
	}

	return header, rows, nil
}

func readWorkbook(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%w: %s has no sheets", ErrSourceUnavailable, path)
	}

	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read sheet %q: %w", ErrSourceUnavailable, sheets[0], err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%w: sheet %q is empty", ErrSourceUnavailable, sheets[0])
	}

	return all[0], all[1:], nil
}

type cleanedRow struct {
	order  models.Order
	reason dropReason
}

// clean parses rows in batches on a bounded worker pool. Output order is the
// source order.
func clean(ctx context.Context, header []string, rows [][]string) (*models.Dataset, error) {
	sch := newSchema(header)
	results := make([]cleanedRow, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for from := 0; from < len(rows); from += batchSize {
		to := min(from+batchSize, len(rows))
		g.Go(func() error {
			for i := from; i < to; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if rows[i] == nil {
					results[i] = cleanedRow{reason: dropMalformed}
					continue
				}
				o, reason := sch.cleanRow(rows[i])
				results[i] = cleanedRow{order: o, reason: reason}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &models.Dataset{
		Columns:         sch.columns,
		Orders:          make([]models.Order, 0, len(rows)),
		RowsRead:        len(rows),
		HasOrderID:      sch.has(ColOrderID),
		HasUnitPrice:    sch.has(ColSales, ColQuantity),
		HasProfitMargin: sch.has(ColProfit, ColSales),
	}

	for _, r := range results {
		switch r.reason {
		case keep:
			ds.Orders = append(ds.Orders, r.order)
		case dropBadDate:
			ds.Dropped.BadDate++
		case dropBadNumber:
			ds.Dropped.BadNumber++
		case dropMalformed:
			ds.Dropped.Malformed++
		}
	}

	return ds, nil
}
