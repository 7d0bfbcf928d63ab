// Package job defines the job entity, typed definitions, the handler
// registry and the store contract.
//
// A [Job] moves through a small state machine:
//
//	pending → running → completed
//	pending → running → retrying → running → ...
//	pending → running → failed
//
// Its Name doubles as the job type reported in metric names. Names may be
// namespaced with "::" or "/" ("Mailer::Welcome", "billing/invoice"); the
// statsd middleware flattens both separators to dots.
//
// # Defining a Job
//
//	var Welcome = job.NewDefinition("Mailer::Welcome",
//	    func(ctx context.Context, in WelcomeInput) error {
//	        return mailer.Send(ctx, in.To)
//	    },
//	    job.WithQueue("mailer"),
//	)
//
//	job.RegisterDefinition(registry, Welcome)
package job
