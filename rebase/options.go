package rebase

import "github.com/rs/zerolog"

type config struct {
	log       zerolog.Logger
	intercept func()
}

func newConfig(opts ...Option) config {
	cfg := config{
		log: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// Option customizes a Rebase or NeedAutosquashing call.
type Option func(*config)

// WithLogger sets the logger used for structured progress and cleanup
// diagnostics. The default discards all output.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithIntercept installs a hook that runs once, immediately before the
// final head compare-and-swap re-reads the ref. It exists for tests that
// need to land a concurrent ref change in that exact window; production
// callers should never set it.
func WithIntercept(fn func()) Option {
	return func(c *config) {
		c.intercept = fn
	}
}
