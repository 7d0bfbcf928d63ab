package redis

import "time"

// keyspace builds keys in the Sidekiq layout, optionally namespaced as
// "<ns>:<key>".
type keyspace struct {
	ns string
}

func (k keyspace) key(s string) string {
	if k.ns == "" {
		return s
	}
	return k.ns + ":" + s
}

// processed is the lifetime processed counter: stat:processed
func (k keyspace) processed() string { return k.key("stat:processed") }

// failed is the lifetime failure counter: stat:failed
func (k keyspace) failed() string { return k.key("stat:failed") }

// processedOn is the per-day processed counter: stat:processed:2006-01-02
func (k keyspace) processedOn(t time.Time) string {
	return k.key("stat:processed:" + t.UTC().Format(time.DateOnly))
}

// failedOn is the per-day failure counter: stat:failed:2006-01-02
func (k keyspace) failedOn(t time.Time) string {
	return k.key("stat:failed:" + t.UTC().Format(time.DateOnly))
}

// retry is the sorted set of jobs awaiting retry.
func (k keyspace) retry() string { return k.key("retry") }

// queues is the set of known queue names.
func (k keyspace) queues() string { return k.key("queues") }

// queue is the list holding a queue's jobs, newest at the head.
func (k keyspace) queue(name string) string { return k.key("queue:" + name) }
