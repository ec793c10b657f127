package http

import (
	"net/http"

	apierrors "github.com/toxidity-18/Marketing-Data-Engine/internal/errors"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/services"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/store"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/validation"
)

// DomainMappings binds the pipeline's sentinel errors to problem responses.
// Upload errors come first since the service wraps them in ErrInvalidInput.
func DomainMappings() []apierrors.Mapping {
	return []apierrors.Mapping{
		{Target: services.ErrDatasetNotFound, Status: http.StatusNotFound, Type: apierrors.TypeDatasetNotFound, Title: "Dataset Not Found"},
		{Target: store.ErrNotFound, Status: http.StatusNotFound, Type: apierrors.TypeDatasetNotFound, Title: "Dataset Not Found"},
		{Target: validation.ErrFileTooLarge, Status: http.StatusRequestEntityTooLarge, Type: apierrors.TypePayloadTooLarge, Title: "Upload Too Large"},
		{Target: validation.ErrUnsupportedExtension, Status: http.StatusBadRequest, Type: apierrors.TypeInvalidUpload, Title: "Invalid Upload"},
		{Target: validation.ErrEmptyFile, Status: http.StatusBadRequest, Type: apierrors.TypeInvalidUpload, Title: "Invalid Upload"},
		{Target: services.ErrNoUploads, Status: http.StatusBadRequest, Type: apierrors.TypeInvalidUpload, Title: "Invalid Upload"},
		{Target: services.ErrIngestionFailed, Status: http.StatusUnprocessableEntity, Type: apierrors.TypeIngestionFailed, Title: "Ingestion Failed"},
		{Target: services.ErrInvalidInput, Status: http.StatusBadRequest, Type: apierrors.TypeValidation, Title: "Invalid Input"},
		{Target: services.ErrServiceUnavailable, Status: http.StatusServiceUnavailable, Type: apierrors.TypeServiceDown, Title: "Service Unavailable"},
	}
}
