package http

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "github.com/toxidity-18/Marketing-Data-Engine/internal/errors"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/services"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/shared/testutil"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/store"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/validation"
)

func newDatasetTestHandler(t *testing.T) (*DatasetHandler, *MockDatasetService) {
	logger, _ := testutil.NewTestLogger(t)
	svc := new(MockDatasetService)
	h := NewDatasetHandler(svc, logger, newTestErrorHandler(t), DatasetHandlerOptions{MaxPerPage: 500})
	return h, svc
}

func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for name, content := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestDatasetHandler_List(t *testing.T) {
	h, svc := newDatasetTestHandler(t)
	svc.On("List").Return([]store.Info{{ID: testDatasetID, Name: "meta.csv", Rows: 3}})
	svc.On("Stats").Return(store.Stats{Datasets: 1, TotalRows: 3})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Datasets []store.Info `json:"datasets"`
		Count    int          `json:"count"`
		Stats    store.Stats  `json:"stats"`
	}
	decodeEnvelope(t, w, &data)
	assert.Equal(t, 1, data.Count)
	assert.Equal(t, "meta.csv", data.Datasets[0].Name)
	assert.Equal(t, 3, data.Stats.TotalRows)
	svc.AssertExpectations(t)
}

func TestDatasetHandler_Upload(t *testing.T) {
	const csv = "Campaign,Clicks,Impressions,Cost\nBrand,10,100,5.00\n"

	tests := []struct {
		name           string
		setupMock      func(*MockDatasetService)
		expectedStatus int
		expectedType   string
	}{
		{
			name: "registers the file",
			setupMock: func(m *MockDatasetService) {
				m.On("Ingest", "google.csv", []byte(csv)).
					Return(&services.IngestResult{ID: testDatasetID, Filename: "google.csv", Rows: 1}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "malformed content",
			setupMock: func(m *MockDatasetService) {
				m.On("Ingest", "google.csv", mock.Anything).
					Return(nil, fmt.Errorf("%w: google.csv: bad quote", services.ErrIngestionFailed))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedType:   apierrors.TypeIngestionFailed,
		},
		{
			name: "unsupported extension",
			setupMock: func(m *MockDatasetService) {
				m.On("Ingest", "google.csv", mock.Anything).
					Return(nil, fmt.Errorf("%w: %w", services.ErrInvalidInput, validation.ErrUnsupportedExtension))
			},
			expectedStatus: http.StatusBadRequest,
			expectedType:   apierrors.TypeInvalidUpload,
		},
		{
			name: "too large",
			setupMock: func(m *MockDatasetService) {
				m.On("Ingest", "google.csv", mock.Anything).
					Return(nil, fmt.Errorf("%w: %w", services.ErrInvalidInput, validation.ErrFileTooLarge))
			},
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedType:   apierrors.TypePayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newDatasetTestHandler(t)
			tt.setupMock(svc)

			body, contentType := multipartBody(t, "file", map[string]string{"google.csv": csv})
			req := httptest.NewRequest(http.MethodPost, "/", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			h.Routes().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedType != "" {
				assert.Equal(t, tt.expectedType, decodeProblem(t, w)["type"])
			} else {
				var result services.IngestResult
				decodeEnvelope(t, w, &result)
				assert.Equal(t, testDatasetID, result.ID)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDatasetHandler_UploadMany(t *testing.T) {
	h, svc := newDatasetTestHandler(t)
	svc.On("IngestMany", mock.MatchedBy(func(uploads []services.Upload) bool {
		return len(uploads) == 2
	})).Return([]services.IngestResult{{ID: "a"}, {ID: "b"}}, nil)

	body, contentType := multipartBody(t, "files", map[string]string{
		"meta.csv":   "Campaign name,Amount spent (USD)\nA,1\n",
		"tiktok.csv": "Campaign name,Cost\nB,2\n",
	})
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var data struct {
		Count int `json:"count"`
	}
	decodeEnvelope(t, w, &data)
	assert.Equal(t, 2, data.Count)
	svc.AssertExpectations(t)
}

func TestDatasetHandler_UploadRejectsNonMultipart(t *testing.T) {
	h, svc := newDatasetTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "IngestMany", mock.Anything)
}

func TestDatasetHandler_UploadWithoutFiles(t *testing.T) {
	h, svc := newDatasetTestHandler(t)
	svc.On("IngestMany", mock.Anything).Return(nil, services.ErrNoUploads)

	body, contentType := multipartBody(t, "other", map[string]string{"x.csv": "a\n1\n"})
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apierrors.TypeInvalidUpload, decodeProblem(t, w)["type"])
}

func TestDatasetHandler_Merge(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockDatasetService)
		expectedStatus int
	}{
		{
			name: "merges datasets",
			body: `{"dataset_ids":["a","b"],"strategy":"append"}`,
			setupMock: func(m *MockDatasetService) {
				m.On("Merge", services.MergeRequest{DatasetIDs: []string{"a", "b"}, Strategy: "append"}).
					Return(&services.IngestResult{ID: testDatasetID, Rows: 4}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing ids",
			body:           `{"dataset_ids":[]}`,
			setupMock:      func(m *MockDatasetService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown strategy",
			body:           `{"dataset_ids":["a"],"strategy":"zip"}`,
			setupMock:      func(m *MockDatasetService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed json",
			body:           `{"dataset_ids":`,
			setupMock:      func(m *MockDatasetService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown dataset",
			body: `{"dataset_ids":["missing"]}`,
			setupMock: func(m *MockDatasetService) {
				m.On("Merge", mock.Anything).Return(nil, fmt.Errorf("%w: missing", services.ErrDatasetNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newDatasetTestHandler(t)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/merge", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.Routes().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestDatasetHandler_Sample(t *testing.T) {
	h, svc := newDatasetTestHandler(t)
	svc.On("GenerateSample", 14, int64(7)).Return(&services.IngestResult{ID: testDatasetID, Normalized: true}, nil)

	req := httptest.NewRequest(http.MethodPost, "/sample", strings.NewReader(`{"days":14,"seed":7}`))
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var result services.IngestResult
	decodeEnvelope(t, w, &result)
	assert.True(t, result.Normalized)

	t.Run("empty body uses defaults", func(t *testing.T) {
		h, svc := newDatasetTestHandler(t)
		svc.On("GenerateSample", 0, int64(0)).Return(&services.IngestResult{ID: testDatasetID}, nil)

		req := httptest.NewRequest(http.MethodPost, "/sample", nil)
		w := httptest.NewRecorder()
		h.Routes().ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("days out of range", func(t *testing.T) {
		h, svc := newDatasetTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/sample", strings.NewReader(`{"days":5000}`))
		w := httptest.NewRecorder()
		h.Routes().ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "GenerateSample", mock.Anything, mock.Anything)
	})
}

func TestDatasetHandler_Page(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		id             string
		setupMock      func(*MockDatasetService)
		expectedStatus int
	}{
		{
			name:  "defaults",
			id:    testDatasetID,
			query: "",
			setupMock: func(m *MockDatasetService) {
				m.On("Page", testDatasetID, 1, store.DefaultPerPage).
					Return(&store.Page{ID: testDatasetID, Page: 1, PerPage: store.DefaultPerPage}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "explicit window",
			id:    testDatasetID,
			query: "?page=3&per_page=25",
			setupMock: func(m *MockDatasetService) {
				m.On("Page", testDatasetID, 3, 25).Return(&store.Page{ID: testDatasetID, Page: 3, PerPage: 25}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "per_page above limit",
			id:             testDatasetID,
			query:          "?per_page=501",
			setupMock:      func(m *MockDatasetService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "page not a number",
			id:             testDatasetID,
			query:          "?page=two",
			setupMock:      func(m *MockDatasetService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid id",
			id:             "not-a-uuid",
			setupMock:      func(m *MockDatasetService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown dataset",
			id:   testDatasetID,
			setupMock: func(m *MockDatasetService) {
				m.On("Page", testDatasetID, 1, store.DefaultPerPage).
					Return(nil, fmt.Errorf("%w: %s", services.ErrDatasetNotFound, testDatasetID))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newDatasetTestHandler(t)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/"+tt.id+tt.query, nil)
			w := httptest.NewRecorder()
			h.Routes().ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestDatasetHandler_DeleteAndReset(t *testing.T) {
	h, svc := newDatasetTestHandler(t)
	svc.On("Delete", testDatasetID).Return(nil)
	svc.On("Reset").Return(3)

	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/"+testDatasetID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Removed int `json:"removed"`
	}
	decodeEnvelope(t, w, &data)
	assert.Equal(t, 3, data.Removed)
	svc.AssertExpectations(t)
}

func TestDatasetHandler_DeleteUnknown(t *testing.T) {
	h, svc := newDatasetTestHandler(t)
	svc.On("Delete", testDatasetID).Return(fmt.Errorf("%w: %s", store.ErrNotFound, testDatasetID))

	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/"+testDatasetID, nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apierrors.TypeDatasetNotFound, decodeProblem(t, w)["type"])
}

func TestDatasetHandler_Describe(t *testing.T) {
	h, svc := newDatasetTestHandler(t)
	svc.On("Describe", testDatasetID).Return(&services.DatasetStats{ID: testDatasetID, Rows: 12}, nil)

	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+testDatasetID+"/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var stats services.DatasetStats
	decodeEnvelope(t, w, &stats)
	assert.Equal(t, 12, stats.Rows)
}
