// FILE: lixenwraith/logpipe/writer/builtin.go
// Package writer binds the built-in writer types to a registry.
package writer

import (
	"github.com/lixenwraith/logpipe"
	"github.com/lixenwraith/logpipe/writer/console"
	"github.com/lixenwraith/logpipe/writer/file"
)

// RegisterBuiltins registers the rotating file, console and debug writers
// under the empty module name.
func RegisterBuiltins(r *logpipe.Registry) error {
	builtins := []struct {
		name    string
		factory logpipe.Factory
	}{
		{file.TypeName, file.Factory},
		{console.TypeName, console.Factory},
		{console.DebugTypeName, console.DebugFactory},
		{console.SystemDebugTypeName, console.SystemDebugFactory},
	}
	for _, b := range builtins {
		if err := r.Register("", b.name, b.factory); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry holding the built-in writers
func NewRegistry() *logpipe.Registry {
	r := logpipe.NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		panic(err)
	}
	return r
}
