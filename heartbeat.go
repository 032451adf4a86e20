// FILE: lixenwraith/logpipe/heartbeat.go
package logpipe

import (
	"fmt"
	"runtime"
	"time"
)

// startHeartbeat emits a statistics entry every interval until stopHeartbeat.
func (d *Dispatcher) startHeartbeat(interval time.Duration) {
	d.heartbeatStop = make(chan struct{})
	d.heartbeatDone = make(chan struct{})

	go func() {
		defer close(d.heartbeatDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-d.heartbeatStop:
				return
			case <-ticker.C:
				d.logHeartbeat()
			}
		}
	}()
}

// stopHeartbeat stops the heartbeat goroutine, if running, and waits for it
func (d *Dispatcher) stopHeartbeat() {
	if d.heartbeatStop == nil {
		return
	}
	close(d.heartbeatStop)
	<-d.heartbeatDone
	d.heartbeatStop = nil
}

// logHeartbeat writes one SystemInfo entry with delivery and runtime statistics
func (d *Dispatcher) logHeartbeat() {
	sequence := d.state.HeartbeatSequence.Add(1)
	s := d.Stats()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	fields := []any{
		"sequence", sequence,
		"uptime_hours", fmt.Sprintf("%.2f", s.UptimeSeconds/3600),
		"direct_writers", s.DirectWriters,
		"queued_writers", s.QueuedWriters,
		"pending_entries", s.PendingEntries,
		"dispatched", s.EntriesDispatched,
		"delivered", s.EntriesDelivered,
		"writer_failures", s.WriterFailures,
		"system_entries", s.SystemEntries,
		"alloc_mb", fmt.Sprintf("%.2f", float64(memStats.Alloc)/(1024*1024)),
		"num_goroutine", runtime.NumGoroutine(),
	}

	_ = d.Write(NewEntry(SeveritySystemInfo, "Dispatcher", "Heartbeat", "heartbeat", nil, fields...))
}
