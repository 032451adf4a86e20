// FILE: lixenwraith/logpipe/compat/builder.go
package compat

import (
	"fmt"

	"github.com/lixenwraith/logpipe"
	"github.com/lixenwraith/logpipe/writer"
	"github.com/lixenwraith/logpipe/writer/console"
)

// Builder provides a flexible way to create configured logger adapters for gnet and fasthttp
// It can use an existing *logpipe.Dispatcher or build a new one from a *logpipe.Builder
type Builder struct {
	d      *logpipe.Dispatcher
	source *logpipe.Builder
	err    error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithDispatcher specifies an existing dispatcher to use for the adapters
// If this is set WithBuilder is ignored
func (b *Builder) WithDispatcher(d *logpipe.Dispatcher) *Builder {
	if d == nil {
		b.err = fmt.Errorf("logpipe/compat: provided dispatcher cannot be nil")
		return b
	}
	b.d = d
	return b
}

// WithBuilder provides the builder for a new dispatcher
// If neither WithDispatcher nor WithBuilder is used, a dispatcher with a
// single direct console writer is created
func (b *Builder) WithBuilder(source *logpipe.Builder) *Builder {
	b.source = source
	return b
}

// getDispatcher resolves the dispatcher to be used, creating one if necessary
func (b *Builder) getDispatcher() (*logpipe.Dispatcher, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.d != nil {
		return b.d, nil
	}

	source := b.source
	if source == nil {
		source = logpipe.NewBuilder().
			Registry(writer.NewRegistry()).
			Writer(logpipe.WriterConfig{Type: console.TypeName})
	}

	d, err := source.Build()
	if err != nil {
		return nil, err
	}

	// Cache for subsequent builds with this builder
	b.d = d
	return d, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	d, err := b.getDispatcher()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(d, opts...), nil
}

// BuildStructuredGnet creates a gnet adapter that extracts key/value fields
// from format strings
func (b *Builder) BuildStructuredGnet(opts ...GnetOption) (*GnetAdapter, error) {
	return b.BuildGnet(append(opts, WithFieldExtraction(true))...)
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	d, err := b.getDispatcher()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(d, opts...), nil
}

// GetDispatcher returns the underlying dispatcher, creating it if needed
func (b *Builder) GetDispatcher() (*logpipe.Dispatcher, error) {
	return b.getDispatcher()
}

// Example usage:
//
//	d, _ := logpipe.NewBuilder().Registry(writer.NewRegistry()).
//		Writer(logpipe.WriterConfig{Type: file.TypeName, UseBackgroundQueue: true}).
//		Build()
//	builder := compat.NewBuilder().WithDispatcher(d)
//
//	gnetLogger, _ := builder.BuildGnet()
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	fasthttpLogger, _ := builder.BuildFastHTTP()
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
