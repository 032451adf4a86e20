// FILE: lixenwraith/logpipe/cmd/logpipe/demo.go
package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/logpipe"
)

var (
	demoCount   int
	demoWorkers int
	demoMaxMsg  int

	demoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Emit entries from concurrent producers, then exit the facility",
		RunE:  runDemo,
	}
)

func init() {
	demoCmd.Flags().IntVarP(&demoCount, "count", "n", 1000, "entries per producer")
	demoCmd.Flags().IntVarP(&demoWorkers, "workers", "w", 8, "concurrent producers")
	demoCmd.Flags().IntVar(&demoMaxMsg, "max-message", 200, "maximum random message length")
}

var demoSeverities = []logpipe.Severity{
	logpipe.SeverityDebug,
	logpipe.SeverityInformation,
	logpipe.SeverityTrace,
	logpipe.SeverityWarning,
	logpipe.SeverityError,
}

func generateRandomMessage(size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[rand.IntN(len(chars))])
	}
	return sb.String()
}

func runDemo(cmd *cobra.Command, _ []string) error {
	if demoCount < 0 || demoWorkers < 1 || demoMaxMsg < 1 {
		return errors.New("count must be non-negative, workers and max-message positive")
	}

	d, err := newDispatcher()
	if err != nil {
		return err
	}

	var (
		wg       sync.WaitGroup
		failures atomic.Int64
	)
	start := time.Now()
	for w := 0; w < demoWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < demoCount; i++ {
				sev := demoSeverities[rand.IntN(len(demoSeverities))]
				msg := generateRandomMessage(rand.IntN(demoMaxMsg) + 1)
				e := logpipe.NewEntry(sev, "Demo", "Produce", msg, nil, "wkr", worker, "seq", i)
				if sev == logpipe.SeverityError {
					e.Err = fmt.Errorf("synthetic failure %d", i)
				}
				if err := d.Write(e); err != nil {
					failures.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()
	produced := time.Since(start)

	acked := d.Exit(0)
	stats := d.Stats()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "produced %d entries with %d workers in %v\n", demoCount*demoWorkers, demoWorkers, produced)
	fmt.Fprintf(out, "dispatched=%d filtered=%d delivered=%d batches=%d writer_failures=%d direct_errors=%d\n",
		stats.EntriesDispatched, stats.EntriesFiltered, stats.EntriesDelivered,
		stats.BatchesDelivered, stats.WriterFailures, failures.Load())
	if !acked {
		return errors.New("delivery queue did not acknowledge exit within the timeout")
	}
	return nil
}
