package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/toxidity-18/Marketing-Data-Engine/internal/errors"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/middleware"
)

// ReportHandler serves dataset exports as downloads
type ReportHandler struct {
	service      ReportServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	query        *middleware.QueryParamValidator
}

// NewReportHandler creates a new report handler
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
		query:        middleware.NewQueryParamValidator(errorHandler),
	}
}

// Routes returns the report routes, mounted under /api/reports
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{id}", func(r chi.Router) {
		r.Use(DatasetCtx(h.errorHandler))
		r.Get("/csv", h.CSV)
		r.Get("/excel", h.Excel)
		r.Get("/markdown", h.Markdown)
	})
	return r
}

// CSV handles GET /api/reports/{id}/csv?bom=true
func (h *ReportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	bom, ok := h.query.ValidateBool(w, r, "bom", false)
	if !ok {
		return
	}

	export, err := h.service.ExportCSV(r.Context(), datasetID(r), bom)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logServed(r, export.Filename, len(export.Data))
	serveExport(w, export)
}

// Excel handles GET /api/reports/{id}/excel
func (h *ReportHandler) Excel(w http.ResponseWriter, r *http.Request) {
	export, err := h.service.ExcelReport(r.Context(), datasetID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logServed(r, export.Filename, len(export.Data))
	serveExport(w, export)
}

// Markdown handles GET /api/reports/{id}/markdown
func (h *ReportHandler) Markdown(w http.ResponseWriter, r *http.Request) {
	export, err := h.service.MarkdownReport(r.Context(), datasetID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logServed(r, export.Filename, len(export.Data))
	serveExport(w, export)
}

func (h *ReportHandler) logServed(r *http.Request, filename string, size int) {
	h.logger.InfoContext(r.Context(), "serving report",
		slog.String("dataset_id", datasetID(r)),
		slog.String("filename", filename),
		slog.Int("size", size))
}
