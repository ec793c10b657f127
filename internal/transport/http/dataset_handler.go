package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	apierrors "github.com/toxidity-18/Marketing-Data-Engine/internal/errors"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/middleware"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/services"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/store"
)

type datasetIDKey struct{}

const defaultUploadMemory = 32 << 20

// SampleRequest asks for a generated multi-platform dataset
type SampleRequest struct {
	Days int   `json:"days,omitempty" validate:"omitempty,min=1,max=730"`
	Seed int64 `json:"seed,omitempty"`
}

// DatasetHandlerOptions tunes paging and multipart parsing
type DatasetHandlerOptions struct {
	MaxPerPage int
	// UploadMemory is the part of a multipart body kept in memory; the rest spills to disk.
	UploadMemory int64
}

// DatasetHandler handles upload, listing and lifecycle of stored datasets
type DatasetHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validator    *middleware.Validator
	query        *middleware.QueryParamValidator
	opts         DatasetHandlerOptions
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, opts DatasetHandlerOptions) *DatasetHandler {
	if opts.MaxPerPage <= 0 {
		opts.MaxPerPage = store.DefaultMaxPage
	}
	if opts.UploadMemory <= 0 {
		opts.UploadMemory = defaultUploadMemory
	}
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
		validator:    middleware.NewValidator(logger),
		query:        middleware.NewQueryParamValidator(errorHandler),
		opts:         opts,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.List)
	r.Post("/", h.Upload)
	r.Delete("/", h.Reset)
	r.Post("/merge", h.Merge)
	r.Post("/sample", h.Sample)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(DatasetCtx(h.errorHandler))
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Get("/stats", h.Describe)
	})
	return r
}

// DatasetCtx validates the {id} URL parameter and stores it in the request context
func DatasetCtx(errorHandler *apierrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if _, err := uuid.Parse(id); err != nil {
				errorHandler.HandleError(w, r, apierrors.ErrValidation("id", "dataset id must be a UUID"))
				return
			}
			ctx := context.WithValue(r.Context(), datasetIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func datasetID(r *http.Request) string {
	if id, ok := r.Context().Value(datasetIDKey{}).(string); ok {
		return id
	}
	return chi.URLParam(r, "id")
}

// List handles GET /api/datasets
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	datasets := h.service.List(r.Context())
	respond(w, r, http.StatusOK, map[string]interface{}{
		"datasets": datasets,
		"count":    len(datasets),
		"stats":    h.service.Stats(r.Context()),
	})
}

// Upload handles POST /api/datasets with one "file" part or several "files" parts
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.opts.UploadMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(fmt.Errorf("expected a multipart upload: %w", err)))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := slices.Concat(r.MultipartForm.File["file"], r.MultipartForm.File["files"])
	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
		uploads = append(uploads, services.Upload{Filename: fh.Filename, Data: data})
	}

	h.logger.InfoContext(r.Context(), "upload received",
		slog.Int("files", len(uploads)),
		slog.String("request_id", middleware.GetReqID(r.Context())))

	if len(uploads) == 1 {
		result, err := h.service.Ingest(r.Context(), uploads[0].Filename, uploads[0].Data)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		respond(w, r, http.StatusCreated, result)
		return
	}

	results, err := h.service.IngestMany(r.Context(), uploads)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, map[string]interface{}{
		"datasets": results,
		"count":    len(results),
	})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return data, nil
}

// Reset handles DELETE /api/datasets
func (h *DatasetHandler) Reset(w http.ResponseWriter, r *http.Request) {
	removed := h.service.Reset(r.Context())
	respond(w, r, http.StatusOK, map[string]interface{}{"removed": removed})
}

// Merge handles POST /api/datasets/merge
func (h *DatasetHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req services.MergeRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.Merge(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, result)
}

// Sample handles POST /api/datasets/sample
func (h *DatasetHandler) Sample(w http.ResponseWriter, r *http.Request) {
	var req SampleRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	result, err := h.service.GenerateSample(r.Context(), req.Days, req.Seed)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, result)
}

// Get handles GET /api/datasets/{id}?page=&per_page=
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	page, ok := h.query.ValidateInt(w, r, "page", 1, 1<<20, 1)
	if !ok {
		return
	}
	perPage, ok := h.query.ValidateInt(w, r, "per_page", 1, h.opts.MaxPerPage, store.DefaultPerPage)
	if !ok {
		return
	}

	result, err := h.service.Page(r.Context(), datasetID(r), page, perPage)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}

// Delete handles DELETE /api/datasets/{id}
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := datasetID(r)
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}

// Describe handles GET /api/datasets/{id}/stats
func (h *DatasetHandler) Describe(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Describe(r.Context(), datasetID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result)
}
