package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/services"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/shared/testutil"
)

func newReportTestHandler(t *testing.T) (*ReportHandler, *MockDatasetService) {
	logger, _ := testutil.NewTestLogger(t)
	svc := new(MockDatasetService)
	return NewReportHandler(svc, logger, newTestErrorHandler(t)), svc
}

func TestReportHandler_Downloads(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		setupMock   func(*MockDatasetService)
		contentType string
		filename    string
		body        string
	}{
		{
			name: "csv",
			path: "/csv",
			setupMock: func(m *MockDatasetService) {
				m.On("ExportCSV", testDatasetID, false).Return(&services.Export{
					Filename:    "google_normalized.csv",
					ContentType: services.ContentTypeCSV,
					Data:        []byte("date,platform\n"),
				}, nil)
			},
			contentType: services.ContentTypeCSV,
			filename:    "google_normalized.csv",
			body:        "date,platform\n",
		},
		{
			name: "csv with bom",
			path: "/csv?bom=1",
			setupMock: func(m *MockDatasetService) {
				m.On("ExportCSV", testDatasetID, true).Return(&services.Export{
					Filename:    "google_normalized.csv",
					ContentType: services.ContentTypeCSV,
					Data:        []byte("\xef\xbb\xbfdate\n"),
				}, nil)
			},
			contentType: services.ContentTypeCSV,
			filename:    "google_normalized.csv",
			body:        "\xef\xbb\xbfdate\n",
		},
		{
			name: "excel",
			path: "/excel",
			setupMock: func(m *MockDatasetService) {
				m.On("ExcelReport", testDatasetID).Return(&services.Export{
					Filename:    "google_report.xlsx",
					ContentType: services.ContentTypeExcel,
					Data:        []byte("PK"),
				}, nil)
			},
			contentType: services.ContentTypeExcel,
			filename:    "google_report.xlsx",
			body:        "PK",
		},
		{
			name: "markdown",
			path: "/markdown",
			setupMock: func(m *MockDatasetService) {
				m.On("MarkdownReport", testDatasetID).Return(&services.Export{
					Filename:    "google_report.md",
					ContentType: services.ContentTypeMarkdown,
					Data:        []byte("# google\n"),
				}, nil)
			},
			contentType: services.ContentTypeMarkdown,
			filename:    "google_report.md",
			body:        "# google\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newReportTestHandler(t)
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+testDatasetID+tt.path, nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, fmt.Sprintf("attachment; filename=%q", tt.filename), w.Header().Get("Content-Disposition"))
			assert.Equal(t, tt.body, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestReportHandler_Errors(t *testing.T) {
	t.Run("unknown dataset", func(t *testing.T) {
		h, svc := newReportTestHandler(t)
		svc.On("MarkdownReport", testDatasetID).Return(nil, fmt.Errorf("%w: %s", services.ErrDatasetNotFound, testDatasetID))

		w := httptest.NewRecorder()
		h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+testDatasetID+"/markdown", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("bad bom flag", func(t *testing.T) {
		h, _ := newReportTestHandler(t)

		w := httptest.NewRecorder()
		h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/"+testDatasetID+"/csv?bom=sometimes", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		h, _ := newReportTestHandler(t)

		w := httptest.NewRecorder()
		h.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/latest/excel", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
