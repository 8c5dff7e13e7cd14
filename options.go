package vectordb

import (
	"github.com/Kshitij-Bakliwal/vector-db-api/model"
)

type options struct {
	logger              *Logger
	defaultIndexConfig  model.IndexConfig
	casMaxAttempts      int
	snapshotPath        string
}

// Option configures a DB at construction time.
type Option func(*options)

// WithLogger configures structured logging for operations. Pass nil to
// disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithDefaultIndexConfig sets the index configuration used for libraries
// created without one specified explicitly.
func WithDefaultIndexConfig(cfg model.IndexConfig) Option {
	return func(o *options) {
		o.defaultIndexConfig = cfg
	}
}

// WithCASMaxAttempts records a bound on optimistic CAS attempts
// (non-positive values are ignored). No DB method reads it: every
// mutation makes a single CAS attempt and surfaces a stale version as
// ErrConflict.
func WithCASMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.casMaxAttempts = n
		}
	}
}

// WithSnapshotPath configures where Save/Load persist libraries,
// documents, and chunks as JSON. Index internal state is never
// persisted; Load rebuilds every index from the chunk repository.
func WithSnapshotPath(path string) Option {
	return func(o *options) {
		o.snapshotPath = path
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:             NoopLogger(),
		defaultIndexConfig: model.FlatIndexConfig(),
		casMaxAttempts:     3,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
