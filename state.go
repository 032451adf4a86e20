// FILE: lixenwraith/logpipe/state.go
package logpipe

import (
	"sync/atomic"
	"time"
)

// State holds the runtime counters of a Dispatcher
type State struct {
	Started atomic.Bool
	Exited  atomic.Bool

	EntriesDispatched atomic.Uint64 // Entries accepted by Write after filtering
	EntriesFiltered   atomic.Uint64 // Debug entries dropped by the filter
	EntriesEnqueued   atomic.Uint64
	EntriesDelivered  atomic.Uint64 // Entries offered to every queued writer
	BatchesDelivered  atomic.Uint64
	DirectWrites      atomic.Uint64
	WriterFailures    atomic.Uint64 // Contained queued-writer failures
	SystemEntries     atomic.Uint64
	EntriesRejected   atomic.Uint64 // Entries offered after the queue stopped

	// Heartbeat statistics
	HeartbeatSequence atomic.Uint64
	StartTime         atomic.Value // stores time.Time
}

// Stats is a point-in-time copy of State
type Stats struct {
	UptimeSeconds     float64 `json:"uptime_seconds"`
	DirectWriters     int     `json:"direct_writers"`
	QueuedWriters     int     `json:"queued_writers"`
	PendingEntries    int     `json:"pending_entries"`
	EntriesDispatched uint64  `json:"entries_dispatched"`
	EntriesFiltered   uint64  `json:"entries_filtered"`
	EntriesEnqueued   uint64  `json:"entries_enqueued"`
	EntriesDelivered  uint64  `json:"entries_delivered"`
	BatchesDelivered  uint64  `json:"batches_delivered"`
	DirectWrites      uint64  `json:"direct_writes"`
	WriterFailures    uint64  `json:"writer_failures"`
	SystemEntries     uint64  `json:"system_entries"`
	EntriesRejected   uint64  `json:"entries_rejected"`
	Exited            bool    `json:"exited"`
}

func (s *State) snapshot() Stats {
	var uptime float64
	if start, ok := s.StartTime.Load().(time.Time); ok && !start.IsZero() {
		uptime = time.Since(start).Seconds()
	}
	return Stats{
		UptimeSeconds:     uptime,
		EntriesDispatched: s.EntriesDispatched.Load(),
		EntriesFiltered:   s.EntriesFiltered.Load(),
		EntriesEnqueued:   s.EntriesEnqueued.Load(),
		EntriesDelivered:  s.EntriesDelivered.Load(),
		BatchesDelivered:  s.BatchesDelivered.Load(),
		DirectWrites:      s.DirectWrites.Load(),
		WriterFailures:    s.WriterFailures.Load(),
		SystemEntries:     s.SystemEntries.Load(),
		EntriesRejected:   s.EntriesRejected.Load(),
		Exited:            s.Exited.Load(),
	}
}
