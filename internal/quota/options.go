package quota

import (
	"log/slog"
	"time"
)

type options struct {
	serialize bool
	now       func() time.Time
	logger    *slog.Logger
}

func defaultOptions() options {
	return options{
		serialize: true,
		now:       time.Now,
		logger:    slog.Default(),
	}
}

// Option configures a Controller or a Ledger.
type Option func(*options)

// WithSerialization controls whether check-then-write sequences run inside
// Repository.WithinTeam. It defaults to true.
func WithSerialization(on bool) Option {
	return func(o *options) {
		o.serialize = on
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
