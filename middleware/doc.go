// Package middleware provides composable middleware for job execution.
//
// A [Middleware] wraps the handler of a single job execution. [Chain]
// composes several of them; the first one listed is the outermost.
//
//	chain := middleware.Chain(middleware.Recover(logger), middleware.Logging(logger))
//
// Built-in middleware:
//
//   - [Recover] turns handler panics into errors
//   - [Logging] logs the start and outcome of each job
//   - [Timeout] applies the job's execution deadline to the context
//   - [Tracing] wraps the execution in an OpenTelemetry span
//
// StatsD reporting lives in the statsd package and plugs in the same way.
//
// A middleware must call next exactly once unless it deliberately
// short-circuits, and must hand next's error back unchanged unless changing
// it is its purpose (as with Recover).
package middleware
