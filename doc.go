// Package jobstats is a small background job engine whose execution
// pipeline reports per-job statistics to a StatsD daemon.
//
// Every job runs through a middleware chain. The statsd middleware times the
// job body, bumps a success or failure counter named after the job type and
// samples queue-depth gauges, while the job's own error flows back to the
// worker untouched.
//
// # Quick Start
//
//	cfg, err := jobstats.LoadConfig()
//	eng, err := engine.New(memory.New(), engine.WithConfig(cfg))
//	engine.Register(eng, SendEmail)
//	_ = eng.Start(ctx)
//
// Metric names follow the "<env>.<prefix>.<type>.<metric>" layout, for
// example "production.worker.Mailer.Welcome.success".
//
// # Architecture
//
// The root package holds shared configuration, sentinel errors and the
// Entity timestamps embedded by persisted types. Subsystems live in their own
// packages: job, middleware, worker, statsd, stats and engine.
package jobstats
