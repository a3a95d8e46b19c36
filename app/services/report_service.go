package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/shashiranjanraj/stockdesk/app/models"
	"github.com/shashiranjanraj/stockdesk/app/reports"
	"github.com/shashiranjanraj/stockdesk/pkg/cache"
	"github.com/shashiranjanraj/stockdesk/pkg/logger"
)

// Report is what the report view shows for one filter.
type Report struct {
	Filter  reports.Filter            `json:"-"`
	Summary reports.Summary           `json:"summary"`
	Rows    []models.StockTransaction `json:"rows"`
}

type ReportService struct {
	deps Deps
}

func NewReportService(d Deps) *ReportService {
	return &ReportService{deps: d.withDefaults()}
}

// Report fetches the ledger for f, cached per filter, and derives the totals.
// The rows are filtered again locally so the totals never depend on how
// strictly the API applied the query.
func (s *ReportService) Report(ctx context.Context, f reports.Filter) (Report, error) {
	if err := f.Validate(); err != nil {
		return Report{}, err
	}
	if err := s.deps.Guard.Check(); err != nil {
		return Report{}, err
	}
	key := cache.StockReports(f.FromText(), f.ToText(), f.TypeText())
	rows, err := cache.Remember(ctx, s.deps.Cache, key, func(ctx context.Context) ([]models.StockTransaction, error) {
		return s.deps.Stock.Report(ctx, f.Params())
	})
	if err != nil {
		return Report{}, err
	}
	return Report{
		Filter:  f,
		Summary: reports.Aggregate(rows, f),
		Rows:    reports.Rows(rows, f),
	}, nil
}

// Export writes the report as CSV to path on the named disk ("" for the
// default disk) and returns the file's URL.
func (s *ReportService) Export(ctx context.Context, r Report, disk, path string) (string, error) {
	if s.deps.Disks == nil {
		return "", fmt.Errorf("services: export needs a storage manager")
	}
	d, err := s.deps.Disks.Use(disk)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := reports.WriteCSV(&buf, r.Rows, r.Filter.Location); err != nil {
		return "", fmt.Errorf("services: render report: %w", err)
	}
	if err := d.Put(ctx, path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("services: export report: %w", err)
	}
	logger.WithCtx(ctx).Info("report: exported", "disk", disk, "path", path, "rows", len(r.Rows))
	return d.URL(path), nil
}
