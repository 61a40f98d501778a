package kstats

import "github.com/go-logr/logr"

// Option is a function that configures a Registry
type Option func(*Registry)

// WithLogr sets the logger for the registry and every graph it creates
var WithLogr = func(log logr.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}
