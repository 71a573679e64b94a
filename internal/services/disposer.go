// SPDX-License-Identifier: MPL-2.0

package services

import (
	"context"
	"errors"
	"io"
	"sync"
)

type (
	// Shutdowner is implemented by resources released asynchronously.
	Shutdowner interface {
		Shutdown(ctx context.Context) error
	}

	// Disposer releases tracked resources exactly once: every io.Closer
	// first, then every Shutdowner, each group in tracking order.
	// The zero value is ready to use.
	Disposer struct {
		mu     sync.Mutex
		items  []any
		closed bool
	}
)

// IsDisposable reports whether v implements io.Closer or Shutdowner.
func IsDisposable(v any) bool {
	switch v.(type) {
	case io.Closer, Shutdowner:
		return true
	default:
		return false
	}
}

// Track registers v for disposal and reports whether it was tracked.
// Values that are not disposable, and values tracked after Close, are ignored.
func (d *Disposer) Track(v any) bool {
	if !IsDisposable(v) {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.items = append(d.items, v)
	return true
}

// Closed reports whether Close has run.
func (d *Disposer) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close releases every tracked value. Calling it again is a no-op.
// A value implementing both interfaces is treated as an io.Closer.
func (d *Disposer) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	items := d.items
	d.items = nil
	d.mu.Unlock()

	var errs []error
	for _, v := range items {
		if c, ok := v.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, v := range items {
		if _, isCloser := v.(io.Closer); isCloser {
			continue
		}
		if s, ok := v.(Shutdowner); ok {
			if err := s.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
