// Package envelope builds the uniform response body returned by every capability endpoint.
package envelope

import (
	"fmt"

	"github.com/aifixr/feed-gateway/internal/capability"
)

// Envelope wraps a capability outcome. Error is omitted on success; Data is
// never null.
type Envelope struct {
	Success bool                `json:"success"`
	Count   int                 `json:"count"`
	Data    []capability.Record `json:"data"`
	Error   string              `json:"error,omitempty"`
}

// FromResult converts a provider Result into an Envelope. It is total: every
// Result maps to an Envelope that satisfies the success/failure invariant.
func FromResult(res capability.Result) Envelope {
	if err := res.Err(); err != nil {
		return Failure(err)
	}
	return Success(res.Records())
}

// Success wraps records.
func Success(records []capability.Record) Envelope {
	data := make([]capability.Record, len(records))
	copy(data, records)
	return Envelope{
		Success: true,
		Count:   len(data),
		Data:    data,
	}
}

// Failure wraps err with an empty data set.
func Failure(err error) Envelope {
	return Envelope{
		Success: false,
		Count:   0,
		Data:    []capability.Record{},
		Error:   describe(err),
	}
}

// Valid reports whether e satisfies the envelope invariant.
func (e Envelope) Valid() bool {
	if e.Success {
		return e.Error == "" && e.Count == len(e.Data)
	}
	return e.Data != nil && len(e.Data) == 0 && e.Count == 0 && e.Error != ""
}

func describe(err error) string {
	if err == nil {
		return "unknown error"
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fmt.Sprintf("%T", err)
}
