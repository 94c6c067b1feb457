// Command report runs the analysis pipeline over CSV files on disk and
// writes the workbook without going through the HTTP server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"insightgen/internal/config"
	"insightgen/internal/dataset"
	"insightgen/internal/infrastructure"
	"insightgen/internal/services"
)

func main() {
	input := flag.String("input", "", "comma-separated CSV files to analyze (required)")
	client := flag.String("client", "Client", "client name shown on the report")
	out := flag.String("out", "", "output directory (defaults to the configured reports dir)")
	benchmarksFile := flag.String("benchmarks", "", "benchmark table JSON (defaults to the configured path)")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	if *out == "" {
		*out = cfg.Upload.ReportsDir
	}
	if *benchmarksFile == "" {
		*benchmarksFile = cfg.Upload.BenchmarksFile
	}

	var uploads []*dataset.Dataset
	for _, path := range strings.Split(*input, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			logger.Error("failed to open input", "path", path, "error", err)
			os.Exit(1)
		}
		ds, err := dataset.FromCSV(f)
		f.Close()
		if err != nil {
			logger.Error("failed to parse input", "path", path, "error", err)
			os.Exit(1)
		}
		uploads = append(uploads, ds)
		logger.Info("input loaded", "path", path, "rows", ds.Len())
	}

	merged, err := dataset.Merge(uploads...)
	if err != nil {
		logger.Error("no usable data rows in inputs", "error", err)
		os.Exit(1)
	}

	service := services.NewReportService(cfg.Analysis, *benchmarksFile, logger)
	summary, filename, err := service.RunAndSave(context.Background(), merged, *client, *out)
	if err != nil {
		logger.Error("analysis run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("report generated",
		"run_id", summary.ID,
		"file", filename,
		"anomalies", summary.Anomalies.TotalAnomalies,
	)
}
