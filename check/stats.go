package check

import (
	"sync"
	"time"
)

// Stats is the running aggregate of a probe run. The loop task and the
// interrupt watcher share it, so every mutation and the final read happen
// under a single mutex held only for that one update, never across a
// suspension point.
type Stats struct {
	mu       sync.Mutex
	sent     uint64
	received uint64
	totalRtt time.Duration
}

// RecordSuccess counts one completed echo exchange and accumulates its
// round trip time.
func (s *Stats) RecordSuccess(rtt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent++
	s.received++
	s.totalRtt += rtt
}

// RecordFailure counts one echo request with no usable reply. Timeouts
// and transport errors are indistinguishable here.
func (s *Stats) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent++
}

// Snapshot returns a consistent copy of the aggregate.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Sent:     s.sent,
		Received: s.received,
		TotalRtt: s.totalRtt,
	}
}

// Snapshot is a point in time copy of Stats, safe to read without
// locking. TotalRtt only accumulates durations of successful exchanges.
type Snapshot struct {
	Sent     uint64
	Received uint64
	TotalRtt time.Duration
}

// PacketLoss returns the loss percentage. An empty run counts as total
// loss by convention, never a division by zero.
func (s Snapshot) PacketLoss() float64 {
	if s.Sent == 0 {
		return 100.0
	}
	return float64(s.Sent-s.Received) / float64(s.Sent) * 100
}

// AvgRtt returns the mean round trip time of the received replies, zero
// when nothing was received.
func (s Snapshot) AvgRtt() time.Duration {
	if s.Received == 0 {
		return 0
	}
	return s.TotalRtt / time.Duration(s.Received)
}
