// Package shared holds helpers used across the engine's packages that belong
// to no single pipeline stage.
//
// The testutil subpackage provides a capturing slog handler for tests:
//
//	func TestNormalize(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    n := normalize.New(schema.Default(), logger)
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "normalized")
//	}
package shared
