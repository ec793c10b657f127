// Package services implements the pipeline layer between the HTTP handlers and the
// domain packages. DatasetService owns the dataset store and runs every stage
// (ingestion, normalization, quality scoring, anomaly detection, aggregation,
// merging, insights and exports) over it, recording a span and stage metrics for
// each run and broadcasting the outcome to websocket clients.
//
// Errors returned by services wrap one of the sentinels in errors.go so handlers
// can map them to HTTP status codes with errors.Is:
//
//	res, err := svc.Normalize(ctx, id, services.NormalizeRequest{Currency: "EUR"})
//	if errors.Is(err, services.ErrDatasetNotFound) {
//	    // 404
//	}
//
// Operations on a dataset that was never normalized normalize it first with its
// detected platform and the default currency.
package services
