// FILE: lixenwraith/logpipe/cmd/logpipe/root.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/lixenwraith/logpipe"
	"github.com/lixenwraith/logpipe/writer"
	"github.com/lixenwraith/logpipe/writer/console"
	"github.com/lixenwraith/logpipe/writer/file"
)

var (
	configFile string
	overrides  []string

	rootCmd = &cobra.Command{
		Use:           "logpipe",
		Short:         "Drive and maintain a logpipe logging facility",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "TOML file with a [logpipe] table and [[writers]] tables")
	rootCmd.PersistentFlags().StringArrayVarP(&overrides, "set", "s", nil, "configuration override as key=value, repeatable")

	rootCmd.AddCommand(demoCmd, serveCmd, archiveCmd, purgeCmd)
}

// newDispatcher builds the dispatcher from the config file, or with a queued
// rotating file writer and a direct console writer when no file is given.
func newDispatcher() (*logpipe.Dispatcher, error) {
	b := logpipe.NewBuilder().Registry(writer.NewRegistry())
	if configFile != "" {
		b = b.FromFile(configFile)
	} else {
		b = b.
			Writer(logpipe.WriterConfig{Type: file.TypeName, UseBackgroundQueue: true}).
			Writer(logpipe.WriterConfig{Type: console.TypeName})
	}
	return b.Override(overrides...).Build()
}

// newConsoleHost builds a dispatcher with a single console writer, used to
// report maintenance runs performed outside a configured facility.
func newConsoleHost() (*logpipe.Dispatcher, error) {
	return logpipe.NewBuilder().
		Registry(writer.NewRegistry()).
		Writer(logpipe.WriterConfig{Type: console.TypeName}).
		Build()
}
