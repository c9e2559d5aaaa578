package service

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Astemirdum/library-records/library/internal/errs"
)

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now; "today" is derived from it on every call.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// storageErr passes classified errors through and marks everything else
// as a storage failure.
func storageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errs.ErrNotFound),
		errors.Is(err, errs.ErrConflict),
		errors.Is(err, errs.ErrIntegrity),
		errors.Is(err, errs.ErrValidation),
		errors.Is(err, errs.ErrStorage):
		return err
	default:
		return errs.Storage(err)
	}
}

func keyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func matches(value, kw string) bool {
	return strings.Contains(strings.ToLower(value), kw)
}

// filter keeps the items accepted by match, preserving order.
func filter[T any](items []T, match func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if match(it) {
			out = append(out, it)
		}
	}
	return out
}

// found turns a lookup error into a boolean, treating NotFound as false.
func found(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errs.ErrNotFound):
		return false, nil
	default:
		return false, storageErr(err)
	}
}
