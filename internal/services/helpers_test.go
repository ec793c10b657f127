package services

import (
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/shared/testutil"
)

// MockWebSocketHub is a mock for EventBroadcaster
type MockWebSocketHub struct {
	mock.Mock
}

func (m *MockWebSocketHub) Broadcast(messageType string, data interface{}) {
	m.Called(messageType, data)
}

func (m *MockWebSocketHub) ClientCount() int {
	args := m.Called()
	return args.Int(0)
}

// Raw exports used across the service tests.
const (
	googleCSV = "Campaign,Ad group,Keyword,Clicks,Impressions,Cost,Conversions,Conv. value,Day\n" +
		"Brand,Core,shoes,50,1000,25.00,5,100,2024-03-01\n" +
		"Brand,Core,boots,40,800,20.00,2,60,2024-03-02\n" +
		"Generic,Wide,sneakers,10,500,15.00,0,0,2024-03-03\n"

	metaCSV = "Day,Campaign name,Ad set name,Ad name,Reach,Impressions,Link clicks,Amount spent,Results,Purchase conversion value\n" +
		"2024-03-01,Prospecting,Broad,Video A,900,1200,30,40.00,3,150\n" +
		"2024-03-02,Prospecting,Broad,Video B,700,900,20,30.00,1,40\n"
)

func newTestService(t *testing.T) (*DatasetService, *MockWebSocketHub) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := &MockWebSocketHub{}
	hub.On("Broadcast", mock.Anything, mock.Anything).Maybe()
	svc := NewDatasetService(DatasetDeps{Hub: hub, Logger: logger})
	return svc, hub
}
