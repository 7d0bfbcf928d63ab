// Package statsd reports job execution statistics to a StatsD daemon.
//
// [Middleware] wraps every job the worker runs:
//
//	<env>.<prefix>.<type>.processing_time   timer, sent on success and failure
//	<env>.<prefix>.<type>.success           counter
//	<env>.<prefix>.<type>.failure           counter
//
// and, unless global stats are disabled, samples queue gauges from a
// [QueueStats] collaborator after each job:
//
//	<env>.<prefix>.enqueued
//	<env>.<prefix>.retry_set_size
//	<env>.<prefix>.processed
//	<env>.<prefix>.failed
//	<env>.<prefix>.queues.<queue>.enqueued   (QueueInspector only)
//	<env>.<prefix>.queues.<queue>.latency    (QueueInspector only, ms)
//
// The job's error is returned exactly as the handler produced it. Failures
// to talk to StatsD or to read queue statistics are logged and otherwise
// ignored.
//
// Defaults are host "localhost", port 8125, prefix "worker" and an
// environment label taken from STATSD_ENV, then APP_ENV, then
// "production". With the defaults a successful "Mailer::Welcome" job
// increments "production.worker.Mailer.Welcome.success".
//
//	m, err := statsd.New(
//	    statsd.WithHost("statsd.internal"),
//	    statsd.WithQueueStats(stats.New(store)),
//	)
//	defer m.Close()
//	executor := worker.NewExecutor(registry, store, bo, logger, m.Handler())
package statsd
