// Package services contains the business logic layer between the HTTP
// transport and the analytics engine.
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"insightgen/internal/analytics"
	"insightgen/internal/benchmarks"
	"insightgen/internal/config"
	"insightgen/internal/dataset"
	"insightgen/internal/report"
)

// ReportService runs the full analysis pipeline over one dataset and renders
// the resulting workbook. Each Run constructs fresh analyzer instances over
// its own dataset, so concurrent requests never share state.
type ReportService struct {
	cfg    config.AnalysisConfig
	table  benchmarks.Table
	logger *slog.Logger
}

// NewReportService creates the service. The benchmark table is loaded once
// at startup; a load failure degrades to the benchmarks-not-loaded state
// rather than failing construction.
func NewReportService(cfg config.AnalysisConfig, benchmarksFile string, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	table, err := benchmarks.Load(benchmarksFile)
	if err != nil {
		logger.Warn("benchmarks not loaded, comparisons disabled",
			"file", benchmarksFile,
			"error", err,
		)
		table = benchmarks.Table{}
	}
	return &ReportService{cfg: cfg, table: table, logger: logger}
}

// Run executes every analyzer over the dataset and returns the combined
// summary. The dataset must be non-empty; that is enforced at construction
// by the dataset package.
func (s *ReportService) Run(ctx context.Context, ds *dataset.Dataset, clientName string) (*analytics.RunSummary, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, dataset.ErrEmptyDataset
	}
	start := time.Now()

	kpis := analytics.NewAggregator(ds, s.logger).Summary()
	weather := analytics.NewCorrelator(ds, s.cfg.StrongCorrelation, s.logger).Summary()
	anomalies := analytics.NewDetector(ds, s.cfg.ZScoreThreshold, s.cfg.LookbackDays, s.logger).Summary(nil)
	benchmarkSummary := analytics.NewComparator(kpis, s.table, s.cfg.StrengthCutoff, s.cfg.WeaknessCutoff, s.logger).Summary()

	summary := &analytics.RunSummary{
		ID:          uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		ClientName:  clientName,
		KPIs:        kpis,
		Weather:     weather,
		Anomalies:   anomalies,
		Benchmarks:  benchmarkSummary,
	}

	s.logger.InfoContext(ctx, "analysis run complete",
		"run_id", summary.ID,
		"client", clientName,
		"rows", ds.Len(),
		"anomalies", anomalies.TotalAnomalies,
		"duration", time.Since(start),
	)
	return summary, nil
}

// Render writes the workbook for a run summary to w.
func (s *ReportService) Render(summary *analytics.RunSummary, w io.Writer) error {
	return report.NewBuilder().Build(summary, w)
}

// RunAndSave runs the analysis and writes the workbook into dir. The file
// name embeds the run ID so successive runs never collide.
func (s *ReportService) RunAndSave(ctx context.Context, ds *dataset.Dataset, clientName, dir string) (*analytics.RunSummary, string, error) {
	summary, err := s.Run(ctx, ds, clientName)
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create reports dir: %w", err)
	}

	filename := fmt.Sprintf("report_%s_%s.xlsx", summary.GeneratedAt.Format("20060102"), summary.ID)
	path := filepath.Join(dir, filename)
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := s.Render(summary, f); err != nil {
		return nil, "", fmt.Errorf("render report: %w", err)
	}
	s.logger.InfoContext(ctx, "report written", "run_id", summary.ID, "path", path)
	return summary, filename, nil
}
