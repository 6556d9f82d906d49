package main

import (
	"context"
	"errors"
	"time"
)

// CleanupFuncs runs deferred teardown in reverse order and joins every
// error it sees.
type CleanupFuncs []func() error

func (cf *CleanupFuncs) Defer(f func() error) {
	*cf = append(*cf, f)
}

// DeferShutdown defers f with a context that expires after timeout.
func (cf *CleanupFuncs) DeferShutdown(timeout time.Duration, f func(ctx context.Context) error) {
	cf.Defer(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return f(ctx)
	})
}

func (cf *CleanupFuncs) Cleanup() error {
	errs := make([]error, 0)
	for i := len(*cf) - 1; i >= 0; i-- {
		if ferr := (*cf)[i](); ferr != nil {
			errs = append(errs, ferr)
		}
	}
	*cf = nil
	return errors.Join(errs...)
}
