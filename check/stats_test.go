package check_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thetooth/pingcheck/check"
)

func TestStatsAccumulation(t *testing.T) {
	var s check.Stats

	s.RecordSuccess(10 * time.Millisecond)
	s.RecordFailure()
	s.RecordSuccess(30 * time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, uint64(3), snap.Sent)
	assert.Equal(t, uint64(2), snap.Received)
	assert.Equal(t, 40*time.Millisecond, snap.TotalRtt)
	assert.LessOrEqual(t, snap.Received, snap.Sent)
}

func TestStatsEmptyRunConventions(t *testing.T) {
	var s check.Stats
	snap := s.Snapshot()

	// An empty run counts as total loss, never a division by zero
	assert.Equal(t, 100.0, snap.PacketLoss())
	assert.Equal(t, time.Duration(0), snap.AvgRtt())
}

func TestStatsTotalRttOnlySuccesses(t *testing.T) {
	var s check.Stats

	s.RecordFailure()
	s.RecordFailure()
	assert.Equal(t, time.Duration(0), s.Snapshot().TotalRtt)
	assert.Equal(t, 100.0, s.Snapshot().PacketLoss())
	assert.Equal(t, time.Duration(0), s.Snapshot().AvgRtt())
}

func TestStatsLossBounds(t *testing.T) {
	tests := []struct {
		name      string
		successes int
		failures  int
		loss      float64
	}{
		{"all received", 4, 0, 0.0},
		{"half received", 2, 2, 50.0},
		{"none received", 0, 3, 100.0},
		{"one of three", 1, 2, 100.0 * 2 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s check.Stats
			for i := 0; i < tt.successes; i++ {
				s.RecordSuccess(time.Millisecond)
			}
			for i := 0; i < tt.failures; i++ {
				s.RecordFailure()
			}

			snap := s.Snapshot()
			assert.InDelta(t, tt.loss, snap.PacketLoss(), 1e-9)
			assert.GreaterOrEqual(t, snap.PacketLoss(), 0.0)
			assert.LessOrEqual(t, snap.PacketLoss(), 100.0)
		})
	}
}

func TestStatsConcurrentUpdates(t *testing.T) {
	var s check.Stats
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if n%2 == 0 {
					s.RecordSuccess(time.Millisecond)
				} else {
					s.RecordFailure()
				}
			}
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	assert.Equal(t, uint64(800), snap.Sent)
	assert.Equal(t, uint64(400), snap.Received)
	assert.Equal(t, 400*time.Millisecond, snap.TotalRtt)
}
