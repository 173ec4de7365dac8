// Package capability defines the provider contract for crawl capabilities and the
// strategies used to locate a provider by name.
package capability

import (
	"context"
	"fmt"
)

// Record is one capability-specific result item (a chart entry, a priced product).
// The routing layer never inspects it beyond serializing it.
type Record = any

// Provider performs a single crawl and returns its records in order.
// An empty slice means "no current data" and is not an error.
type Provider interface {
	Crawl(ctx context.Context) ([]Record, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(ctx context.Context) ([]Record, error)

// Crawl calls f.
func (f ProviderFunc) Crawl(ctx context.Context) ([]Record, error) {
	return f(ctx)
}

// Result is the outcome of one provider invocation: either records or an error.
type Result struct {
	records []Record
	err     error
}

// Success builds a successful Result.
func Success(records []Record) Result {
	if records == nil {
		records = []Record{}
	}
	return Result{records: records}
}

// Failure builds a failed Result. A nil err is treated as an unknown failure.
func Failure(err error) Result {
	if err == nil {
		err = errUnknownFailure
	}
	return Result{err: err}
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool {
	return r.err == nil
}

// Records returns the records of a successful Result, or nil on failure.
func (r Result) Records() []Record {
	if r.err != nil {
		return nil
	}
	if r.records == nil {
		return []Record{}
	}
	return r.records
}

// Err returns the failure, or nil on success.
func (r Result) Err() error {
	return r.err
}

// Invoke runs p exactly once. Returned errors and panics both become a failed Result.
func Invoke(ctx context.Context, p Provider) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Failure(fmt.Errorf("provider panic: %v", rec))
		}
	}()
	records, err := p.Crawl(ctx)
	if err != nil {
		return Failure(err)
	}
	return Success(records)
}
