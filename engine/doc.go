// Package engine wires the job registry, store, middleware chain and worker
// pool together and reports every job to StatsD.
//
// The engine package sits above the subsystem packages so that the root
// jobstats package (Config, Entity, errors) can be imported by all of them.
//
// # Building an Engine
//
//	eng, err := engine.New(memory.New(),
//	    engine.WithConfig(cfg),
//	    engine.WithStatsd(statsd.WithHost("statsd.internal"), statsd.WithPrefix("billing")),
//	)
//
// # Registering and Enqueuing
//
//	engine.Register(eng, SendEmail)
//	engine.Enqueue(ctx, eng, "send-email", EmailInput{To: "user@example.com"})
//
// # Default middleware
//
// Jobs run through Recover, Tracing, the StatsD middleware, Logging and
// Timeout, in that order, followed by any [WithMiddleware] additions.
package engine
