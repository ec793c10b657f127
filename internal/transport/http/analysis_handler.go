package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/aggregate"
	apierrors "github.com/toxidity-18/Marketing-Data-Engine/internal/errors"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/insights"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/middleware"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/services"
)

var granularities = []string{string(aggregate.Daily), string(aggregate.Weekly), string(aggregate.Monthly)}

// AnalysisHandler exposes normalization, quality, anomaly, aggregation and insight runs over a
// stored dataset
type AnalysisHandler struct {
	service      AnalysisServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validator    *middleware.Validator
	query        *middleware.QueryParamValidator
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "analysis_handler")),
		errorHandler: errorHandler,
		validator:    middleware.NewValidator(logger),
		query:        middleware.NewQueryParamValidator(errorHandler),
	}
}

// Routes returns the analysis routes, mounted under /api/analysis
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/{id}", func(r chi.Router) {
		r.Use(DatasetCtx(h.errorHandler))
		r.Post("/normalize", h.Normalize)
		r.Get("/quality", h.Quality)
		r.Get("/anomalies", h.Anomalies)
		r.Get("/performance", h.Performance)
		r.Get("/aggregate/date", h.AggregateByDate)
		r.Get("/aggregate/campaign", h.AggregateByCampaign)
		r.Get("/platforms", h.ComparePlatforms)
		r.Post("/insights", h.Insights)
	})
	return r
}

// Normalize handles POST /api/analysis/{id}/normalize
func (h *AnalysisHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req services.NormalizeRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Normalize(r.Context(), datasetID(r), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}

// Quality handles GET /api/analysis/{id}/quality
func (h *AnalysisHandler) Quality(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.CheckQuality(r.Context(), datasetID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, report)
}

// Anomalies handles GET /api/analysis/{id}/anomalies?columns=spend,clicks
func (h *AnalysisHandler) Anomalies(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.DetectAnomalies(r.Context(), datasetID(r), h.query.ValidateList(r, "columns"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}

// Performance handles GET /api/analysis/{id}/performance
func (h *AnalysisHandler) Performance(w http.ResponseWriter, r *http.Request) {
	findings, err := h.service.DetectPerformanceAnomalies(r.Context(), datasetID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]interface{}{
		"findings": findings,
		"count":    len(findings),
	})
}

// AggregateByDate handles GET /api/analysis/{id}/aggregate/date?granularity=&by_platform=
func (h *AnalysisHandler) AggregateByDate(w http.ResponseWriter, r *http.Request) {
	granularity, ok := h.query.ValidateEnum(w, r, "granularity", granularities, string(aggregate.Daily))
	if !ok {
		return
	}
	byPlatform, ok := h.query.ValidateBool(w, r, "by_platform", false)
	if !ok {
		return
	}

	result, err := h.service.AggregateByDate(r.Context(), datasetID(r), granularity, byPlatform)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}

// AggregateByCampaign handles GET /api/analysis/{id}/aggregate/campaign?breakdown=
func (h *AnalysisHandler) AggregateByCampaign(w http.ResponseWriter, r *http.Request) {
	breakdown, ok := h.query.ValidateBool(w, r, "breakdown", false)
	if !ok {
		return
	}

	result, err := h.service.AggregateByCampaign(r.Context(), datasetID(r), breakdown)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}

// ComparePlatforms handles GET /api/analysis/{id}/platforms?metric=
func (h *AnalysisHandler) ComparePlatforms(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = aggregate.DefaultCompareMetric
	}

	result, err := h.service.ComparePlatforms(r.Context(), datasetID(r), metric)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}

// Insights handles POST /api/analysis/{id}/insights
func (h *AnalysisHandler) Insights(w http.ResponseWriter, r *http.Request) {
	var req insights.Request
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Insights(r.Context(), datasetID(r), req)
	if err != nil {
		h.logger.WarnContext(r.Context(), "insight generation failed",
			slog.String("dataset_id", datasetID(r)),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}
