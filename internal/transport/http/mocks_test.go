package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/aggregate"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/anomaly"
	apierrors "github.com/toxidity-18/Marketing-Data-Engine/internal/errors"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/insights"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/quality"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/services"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/shared/testutil"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/store"
)

const testDatasetID = "6f1c2b7e-3d4a-4f5b-8c9d-0e1f2a3b4c5d"

// MockDatasetService is a mock implementation of DatasetServiceInterface and
// AnalysisServiceInterface and ReportServiceInterface
type MockDatasetService struct {
	mock.Mock
}

func (m *MockDatasetService) Ingest(ctx context.Context, filename string, data []byte) (*services.IngestResult, error) {
	args := m.Called(filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.IngestResult), args.Error(1)
}

func (m *MockDatasetService) IngestMany(ctx context.Context, uploads []services.Upload) ([]services.IngestResult, error) {
	args := m.Called(uploads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.IngestResult), args.Error(1)
}

func (m *MockDatasetService) Merge(ctx context.Context, req services.MergeRequest) (*services.IngestResult, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.IngestResult), args.Error(1)
}

func (m *MockDatasetService) GenerateSample(ctx context.Context, days int, seed int64) (*services.IngestResult, error) {
	args := m.Called(days, seed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.IngestResult), args.Error(1)
}

func (m *MockDatasetService) Page(ctx context.Context, id string, page, perPage int) (*store.Page, error) {
	args := m.Called(id, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Page), args.Error(1)
}

func (m *MockDatasetService) Describe(ctx context.Context, id string) (*services.DatasetStats, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DatasetStats), args.Error(1)
}

func (m *MockDatasetService) Stats(ctx context.Context) store.Stats {
	return m.Called().Get(0).(store.Stats)
}

func (m *MockDatasetService) List(ctx context.Context) []store.Info {
	return m.Called().Get(0).([]store.Info)
}

func (m *MockDatasetService) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockDatasetService) Reset(ctx context.Context) int {
	return m.Called().Int(0)
}

func (m *MockDatasetService) Normalize(ctx context.Context, id string, req services.NormalizeRequest) (*services.NormalizeResult, error) {
	args := m.Called(id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.NormalizeResult), args.Error(1)
}

func (m *MockDatasetService) CheckQuality(ctx context.Context, id string) (*quality.Report, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quality.Report), args.Error(1)
}

func (m *MockDatasetService) DetectAnomalies(ctx context.Context, id string, columns []string) (*anomaly.Result, error) {
	args := m.Called(id, columns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anomaly.Result), args.Error(1)
}

func (m *MockDatasetService) DetectPerformanceAnomalies(ctx context.Context, id string) ([]anomaly.Finding, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]anomaly.Finding), args.Error(1)
}

func (m *MockDatasetService) AggregateByDate(ctx context.Context, id, granularity string, byPlatform bool) (*aggregate.Result, error) {
	args := m.Called(id, granularity, byPlatform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aggregate.Result), args.Error(1)
}

func (m *MockDatasetService) AggregateByCampaign(ctx context.Context, id string, breakdown bool) (*aggregate.Result, error) {
	args := m.Called(id, breakdown)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aggregate.Result), args.Error(1)
}

func (m *MockDatasetService) ComparePlatforms(ctx context.Context, id, metric string) (*aggregate.Result, error) {
	args := m.Called(id, metric)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aggregate.Result), args.Error(1)
}

func (m *MockDatasetService) Insights(ctx context.Context, id string, req insights.Request) (*insights.Result, error) {
	args := m.Called(id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*insights.Result), args.Error(1)
}

func (m *MockDatasetService) ExportCSV(ctx context.Context, id string, bom bool) (*services.Export, error) {
	args := m.Called(id, bom)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Export), args.Error(1)
}

func (m *MockDatasetService) ExcelReport(ctx context.Context, id string) (*services.Export, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Export), args.Error(1)
}

func (m *MockDatasetService) MarkdownReport(ctx context.Context, id string) (*services.Export, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Export), args.Error(1)
}

func newTestErrorHandler(t *testing.T) *apierrors.ErrorHandler {
	logger, _ := testutil.NewTestLogger(t)
	return apierrors.NewErrorHandler(logger, false, DomainMappings()...)
}

// envelope decodes a success response
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	require.Equal(t, "success", env.Status)
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
}

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem), w.Body.String())
	return problem
}
