// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package facts abstracts querying the operating system for structured facts.
// On Windows the provider is backed by WMI; everywhere else it reports itself
// unavailable and collectors fall back to portable sources.
package facts

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned by providers that cannot serve queries on the
// current platform or in the current environment.
var ErrUnavailable = errors.New("system fact provider is not available")

// Result carries query execution metadata alongside the error channel.
type Result struct {
	Retries int
	Elapsed time.Duration
}

// Provider is the system fact source consumed by the collectors.
//
// Available is cheap and cached after the first probe. Query fills dst, which
// must be a pointer to a slice of a struct whose fields mirror the queried
// class's properties. Each call is independently retryable; a Provider never
// panics past its boundary.
type Provider interface {
	Available() bool
	Query(ctx context.Context, dst any, class string, where string) (Result, error)
}

// Options configure the retry policy of a provider.
type Options struct {
	// MaxRetries bounds how many attempts a single query makes.
	MaxRetries int
	// RetryDelay is the fixed delay between attempts.
	RetryDelay time.Duration
}

// DefaultOptions returns the standard bounded-retry policy.
func DefaultOptions() Options {
	return Options{
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

func (o Options) validate() error {
	if o.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1, got %d", o.MaxRetries)
	}
	if o.RetryDelay < 0 {
		return fmt.Errorf("retry delay must not be negative, got %s", o.RetryDelay)
	}
	return nil
}

// BuildQuery assembles a WQL SELECT statement for class with an optional
// WHERE clause.
func BuildQuery(class, where string) string {
	q := "SELECT * FROM " + class
	if where != "" {
		q += " WHERE " + where
	}
	return q
}
