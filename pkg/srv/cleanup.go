package srv

import (
	"context"
	"errors"
)

// closer runs its funcs on shutdown, last registered first. It has nothing
// to do on start.
type closer struct {
	fns []func() error
}

// NewCleanup wraps release funcs, e.g. db.Close, as a Service. Nil funcs
// are skipped and every error is reported.
func NewCleanup(fns ...func() error) Service {
	return &closer{fns: fns}
}

func (c *closer) Start(ctx context.Context) error {
	return nil
}

func (c *closer) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(c.fns) - 1; i >= 0; i-- {
		if c.fns[i] == nil {
			continue
		}
		if err := c.fns[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
