// Package http contains the HTTP transport layer: chi routers and handlers
// over the service layer.
package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"insightgen/internal/dataset"
	apierrors "insightgen/internal/errors"
	"insightgen/internal/services"
)

// ReportHandler handles analysis report requests.
type ReportHandler struct {
	service    *services.ReportService
	reportsDir string
	maxUpload  int64
	logger     *slog.Logger
}

// NewReportHandler creates a report handler.
func NewReportHandler(service *services.ReportService, reportsDir string, maxUpload int64, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		service:    service,
		reportsDir: reportsDir,
		maxUpload:  maxUpload,
		logger:     logger.With(slog.String("component", "report_handler")),
	}
}

// Routes returns the report routes.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/", h.CreateReport)
	r.Get("/{filename}", h.DownloadReport)
	return r
}

// createReportResponse is the upload endpoint's JSON payload.
type createReportResponse struct {
	RunID      string `json:"run_id"`
	ReportFile string `json:"report_file"`
	Rows       int    `json:"rows"`
	Anomalies  int    `json:"anomalies"`
}

// CreateReport accepts one or more CSV uploads under the "files" form field,
// merges them into a single dataset, runs the full analysis, and persists
// the rendered workbook.
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.renderError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		h.renderError(w, r, apierrors.ErrMissingUpload)
		return
	}

	clientName := strings.TrimSpace(r.FormValue("client_name"))
	if clientName == "" {
		clientName = "Client"
	}

	uploads := make([]*dataset.Dataset, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			h.renderError(w, r, apierrors.InvalidRequestWithError(fmt.Errorf("open upload %s: %w", header.Filename, err)))
			return
		}
		ds, err := dataset.FromCSV(f)
		f.Close()
		if err != nil {
			if errors.Is(err, dataset.ErrEmptyDataset) {
				h.renderError(w, r, apierrors.EmptyDatasetError(fmt.Errorf("%s: %w", header.Filename, err)))
				return
			}
			h.renderError(w, r, apierrors.InvalidRequestWithError(fmt.Errorf("parse %s: %w", header.Filename, err)))
			return
		}
		uploads = append(uploads, ds)
	}

	merged, err := dataset.Merge(uploads...)
	if err != nil {
		h.renderError(w, r, apierrors.EmptyDatasetError(err))
		return
	}

	summary, filename, err := h.service.RunAndSave(r.Context(), merged, clientName, h.reportsDir)
	if err != nil {
		if errors.Is(err, dataset.ErrEmptyDataset) {
			h.renderError(w, r, apierrors.EmptyDatasetError(err))
			return
		}
		h.logger.ErrorContext(r.Context(), "analysis run failed", "error", err)
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, createReportResponse{
		RunID:      summary.ID,
		ReportFile: filename,
		Rows:       merged.Len(),
		Anomalies:  summary.Anomalies.TotalAnomalies,
	})
}

// DownloadReport serves a previously generated workbook. The filename is
// confined to the reports directory.
func (h *ReportHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		h.renderError(w, r, apierrors.ErrInvalidRequest)
		return
	}
	path := filepath.Join(h.reportsDir, filename)
	if _, err := os.Stat(path); err != nil {
		h.renderError(w, r, apierrors.NotFoundError("report"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

func (h *ReportHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if err := render.Render(w, r, apiErr); err != nil {
		h.logger.ErrorContext(r.Context(), "render error response", "error", err)
	}
}
