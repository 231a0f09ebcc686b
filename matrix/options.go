// SPDX-License-Identifier: MIT

// Package matrix: functional configuration of the numeric policy used by
// Dense constructors. Option constructors are idempotent; there is no global
// mutable state, every constructor call gathers its own Options value.
package matrix

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultValidateNaNInf toggles strict finite-value validation on ingestion and Set.
	DefaultValidateNaNInf = true
)

// Option mutates internal options. Safe to apply repeatedly.
type Option func(*Options)

// Options carries the numeric policy of a constructor call.
// Fields are unexported; public APIs consume ...Option.
type Options struct {
	validateNaNInf bool
}

// WithValidateNaNInf makes Set and row ingestion reject NaN and ±Inf.
// This is the default.
func WithValidateNaNInf() Option {
	return func(o *Options) { o.validateNaNInf = true }
}

// WithNoValidateNaNInf lets NaN and ±Inf through Set and row ingestion.
//
// AI-Hints:
//   - Use for raw observation tables where NaN marks a missing value
//     (see PairwiseCorrelation), or to hand non-finite data to a routine
//     that reports it with its own error.
func WithNoValidateNaNInf() Option {
	return func(o *Options) { o.validateNaNInf = false }
}

// defaultOptions returns the documented defaults.
func defaultOptions() Options {
	return Options{validateNaNInf: DefaultValidateNaNInf}
}

// gatherOptions applies user options over the defaults in order (last wins).
func gatherOptions(user ...Option) Options {
	o := defaultOptions()
	for _, fn := range user {
		if fn != nil {
			fn(&o)
		}
	}

	return o
}
