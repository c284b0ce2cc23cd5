// Package observability provides logging, metrics, and tracing
// for the restaurant service.
//
// # Logging
//
// The Logger interface wraps zap:
//
//	logger, err := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer func() { _ = logger.Sync() }()
//
//	logger.Info("request processed",
//	    observability.String("method", "GET"),
//	    observability.Int("status", 200),
//	)
//
// # Metrics
//
// Metrics owns a private Prometheus registry. Other packages register their
// own collectors on it through Registry so that a single /metrics endpoint
// exposes everything:
//
//	metrics := observability.NewMetrics("restaurant")
//	router.GET("/metrics", gin.WrapH(metrics.Handler()))
//
// # Tracing
//
// Tracer exports spans over OTLP/gRPC when enabled and falls back to the
// global no-op provider otherwise.
package observability
