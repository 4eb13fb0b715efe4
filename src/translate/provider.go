package translate

import (
	"context"
	"iter"
)

// SimpleFunc returns the whole translation at once.
type SimpleFunc func(ctx context.Context, req Request) (Reply, error)

// StreamFunc yields translation fragments as they arrive. The sequence ends
// after the first error.
type StreamFunc func(ctx context.Context, req Request) iter.Seq2[string, error]

// Provider is either Simple or Streaming; the variant is fixed when the
// provider is built.
type Provider struct {
	name   string
	simple SimpleFunc
	stream StreamFunc
}

func Simple(name string, fn SimpleFunc) Provider {
	return Provider{name: name, simple: fn}
}

func Streaming(name string, fn StreamFunc) Provider {
	return Provider{name: name, stream: fn}
}

func (p Provider) Name() string  { return p.name }
func (p Provider) Streams() bool { return p.stream != nil }
func (p Provider) IsZero() bool  { return p.simple == nil && p.stream == nil }
