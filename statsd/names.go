package statsd

import "strings"

var typeReplacer = strings.NewReplacer("::", ".", "/", ".")

// TypeName flattens a namespaced job name into a metric-safe segment:
// "Mailer::Welcome" and "mailer/welcome" become "Mailer.Welcome" and
// "mailer.welcome". Colons would otherwise end the metric name in the
// StatsD line protocol.
func TypeName(name string) string {
	return typeReplacer.Replace(name)
}

// joinName joins the non-empty parts with dots.
func joinName(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}
