// Package logging provides structured logging for the tracer engine.
//
// This package wraps Go's log/slog to emit JSON lines with persistent
// attributes so that routing decisions, genealogy mutations and exports can
// be filtered after the fact.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying handler and file.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/var/log/tracer", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	routerLog := logger.WithComponent("router").WithWorker("owl")
//	routerLog.Info("route computed", "target_id", "bloom_004", "score", 0.71)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"route computed","component":"router","worker":"owl","target_id":"bloom_004","score":0.71}
//
// Components that accept a nil *Logger fall back to [NopLogger].
package logging
