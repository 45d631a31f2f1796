// Package datasource abstracts where unsorted input lines come from.
package datasource

import (
	"context"
	"io"
	"strings"
)

// Source yields a fresh reader over the input each time it is opened.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the source in logs and errors.
	Name() string
}

// String is an in-memory Source, mostly useful in tests.
type String struct {
	name, data string
}

// NewString returns a Source over data.
func NewString(name, data string) *String { return &String{name: name, data: data} }

func (s *String) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(s.data)), nil
}

func (s *String) Name() string { return s.name }
