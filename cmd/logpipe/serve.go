// FILE: lixenwraith/logpipe/cmd/logpipe/serve.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/logpipe/admin"
)

var (
	serveAddr string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the facility with the operator endpoint until interrupted or /exit",
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", ":9090", "admin listen address")
}

func runServe(_ *cobra.Command, _ []string) error {
	d, err := newDispatcher()
	if err != nil {
		return err
	}
	defer d.Exit(0)

	exited := make(chan struct{})
	srv := admin.New(d, admin.WithExitHook(func(bool) { close(exited) }))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(serveAddr) }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		return err
	case <-sigChan:
		_ = d.Info("Serve", "Signal", "Shutdown signal received")
	case <-exited:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
