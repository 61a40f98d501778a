package kerror

import (
	"errors"
	"sync"

	"go.uber.org/multierr"
)

// Collector gathers the failures of one run from concurrent workers.
// The zero value is ready to use.
type Collector struct {
	mu  sync.Mutex
	err error
}

// Add records err. Nil errors are ignored. A Multi error, also when wrapped,
// or a combination built with multierr is flattened into its individual
// errors.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}

	var errs []error
	for _, e := range multierr.Errors(err) {
		var multi *Error
		if errors.As(e, &multi) && multi.kind == KindMulti {
			errs = append(errs, multi.Errors()...)
			continue
		}
		errs = append(errs, e)
	}

	c.mu.Lock()
	for _, e := range errs {
		c.err = multierr.Append(c.err, e)
	}
	c.mu.Unlock()
}

// Len returns the number of recorded errors.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(multierr.Errors(c.err))
}

// Err returns nil if nothing was recorded, the error itself if exactly one
// was, and otherwise a Multi whose primary is the first recorded error.
func (c *Collector) Err() error {
	c.mu.Lock()
	errs := multierr.Errors(c.err)
	c.mu.Unlock()

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return Multi(errs[0], errs)
	}
}
