// Package logging provides structured, context-aware logging on top of Zap.
//
// All log methods take a context.Context first; correlation fields
// (run ID, stage, repository) stored in the context are attached to
// every entry automatically:
//
//	ctx = logging.WithRunID(ctx, runID)
//	log.Info(ctx, "stage started", zap.String("stage", name))
//
// Output goes to stdout (JSON or console format) and optionally to an
// OpenTelemetry log provider via the otelzap bridge. Use NewTestLogger
// in tests to observe and assert on emitted entries.
package logging
