// Package health provides the liveness and readiness endpoints.
//
// GET /health reports that the process is up together with its version
// and uptime. GET /ready runs the registered dependency checks, such as a
// store ping, under a bounded timeout and answers 503 if any fails:
//
//	checker := health.NewChecker(version, health.WithLogger(logger))
//	checker.RegisterCheck("store", st.Ping)
//	checker.RegisterRoutes(engine)
package health
