/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import "time"

// Options configures paging and retries.
type Options struct {
	PageSize       int32           // Items per Query page (default: 100)
	MaxRetries     int             // Retry attempts for transient errors (default: 3)
	RetryBackoff   time.Duration   // Backoff step between retries (default: 1s)
	ConsistentRead bool            // Strongly consistent reads (default: true)
	PageHandler    func(PageStats) // Optional callback after each page
}

// PageStats reports progress of a paged read.
type PageStats struct {
	Store          string
	PagesProcessed int
	ItemsProcessed int64
	StartTime      time.Time
}

// Option is a functional option for Options.
type Option func(*Options)

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		PageSize:       100,
		MaxRetries:     3,
		RetryBackoff:   time.Second,
		ConsistentRead: true,
	}
}

// WithPageSize sets the Query page size.
func WithPageSize(size int32) Option {
	return func(o *Options) {
		o.PageSize = size
	}
}

// WithMaxRetries sets the maximum retry attempts.
func WithMaxRetries(retries int) Option {
	return func(o *Options) {
		o.MaxRetries = retries
	}
}

// WithRetryBackoff sets the retry backoff step.
func WithRetryBackoff(backoff time.Duration) Option {
	return func(o *Options) {
		o.RetryBackoff = backoff
	}
}

// WithConsistentRead toggles strongly consistent reads.
func WithConsistentRead(on bool) Option {
	return func(o *Options) {
		o.ConsistentRead = on
	}
}

// WithPageHandler sets a callback invoked after every page.
func WithPageHandler(fn func(PageStats)) Option {
	return func(o *Options) {
		o.PageHandler = fn
	}
}
