package datalake

import (
	"context"
	"io"
)

// Source is the interface for getting raw data one record at a time. Record
// returns io.EOF once the source is exhausted. Implementations of Source should
// be thread safe.
type Source interface {
	Record() (interface{}, error)
}

// NamedReadCloser is an io.ReadCloser for a single stored object which knows
// the object's name.
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
	Meta() map[string]interface{}
}

// RawSource hands out a reader for each object it holds, in a stable order,
// returning io.EOF when there are none left. NextReader must be safe to call
// concurrently.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}

// Sink is the destination storage the tables are written to. Keys are
// slash separated and relative to the sink's root.
type Sink interface {
	// Create opens a new object for writing. The object is only guaranteed to
	// be visible once Close has returned without error.
	Create(ctx context.Context, key string) (io.WriteCloser, error)

	// RemoveAll deletes every object whose key starts with prefix. It is not an
	// error for there to be none.
	RemoveAll(ctx context.Context, prefix string) error
}

// Aborter is implemented by writers from Sink.Create which can discard what
// has been written instead of committing it. err is the reason.
type Aborter interface {
	Abort(err error) error
}
