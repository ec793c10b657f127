// Package http implements the REST surface of the Marketing Data Engine. Handlers stay thin:
// they parse and validate the request, call a service interface and render the result.
//
// # Routes
//
//	/api/health            health, readiness, liveness, detailed health, system stats
//	/api/version           build information
//	/api/datasets          list, multipart upload, reset, merge, sample, paging, stats
//	/api/analysis/{id}     normalize, quality, anomalies, performance, aggregations, insights
//	/api/reports/{id}      CSV, Excel and Markdown downloads
//	/metrics               Prometheus scrape endpoint
//
// # Responses
//
// Successful JSON responses use the envelope
//
//	{"status": "success", "data": {...}}
//
// Failures are RFC 7807 problem documents rendered by the shared ErrorHandler. Service
// sentinel errors reach their status codes through DomainMappings:
//
//	{
//	    "type": "/errors/dataset/not-found",
//	    "title": "Dataset Not Found",
//	    "status": 404,
//	    "detail": "dataset not found: 0d1f...",
//	    "instance": "/api/analysis/0d1f.../quality",
//	    "trace_id": "..."
//	}
//
// # Testing
//
// Handlers depend on the interfaces in service_interfaces.go and are tested against
// testify mocks with httptest recorders.
package http
