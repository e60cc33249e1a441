package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivoronin/dupehound/internal/types"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestTrackerDefaults(t *testing.T) {
	tr := New(nil)
	st := tr.Snapshot()

	assert.Equal(t, types.PhaseIdle, st.Phase)
	assert.Zero(t, st.Scanned)
	assert.Zero(t, st.Elapsed)
	assert.False(t, st.HasETA)
}

func TestTrackerElapsedLiveThenFrozen(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	tr := New(clock.Now)
	tr.Reset(ScanStatus{Phase: types.PhaseScanning, StartedAt: clock.Now()})

	clock.Advance(3 * time.Second)
	assert.Equal(t, 3*time.Second, tr.Snapshot().Elapsed)

	tr.Update(func(s *ScanStatus) { s.Phase = types.PhaseDone })
	clock.Advance(time.Hour)
	assert.Equal(t, 3*time.Second, tr.Snapshot().Elapsed, "elapsed must freeze once done")
}

func TestTrackerUpdateIf(t *testing.T) {
	tr := New(nil)
	tr.Reset(ScanStatus{Phase: types.PhaseHashing})

	ok := tr.UpdateIf(types.PhaseNeedsTuning, func(s *ScanStatus) { s.CurrentMinSize = 1 })
	assert.False(t, ok)
	assert.Zero(t, tr.MinSize())

	ok = tr.UpdateIf(types.PhaseHashing, func(s *ScanStatus) { s.CurrentMinSize = 42 })
	assert.True(t, ok)
	assert.Equal(t, int64(42), tr.MinSize())
	assert.Equal(t, types.PhaseHashing, tr.Phase())
}

func TestTrackerSnapshotIsCopy(t *testing.T) {
	tr := New(nil)
	tr.Reset(ScanStatus{Phase: types.PhaseScanning, Root: "/data"})

	st := tr.Snapshot()
	st.Root = "/changed"
	assert.Equal(t, "/data", tr.Snapshot().Root)
}

// TestTrackerConsistentSnapshots tests that paired fields are never observed torn.
func TestTrackerConsistentSnapshots(t *testing.T) {
	tr := New(nil)
	tr.Reset(ScanStatus{Phase: types.PhaseHashing})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 1000; i++ {
			tr.Update(func(s *ScanStatus) {
				s.HashDone = i
				s.HashTotal = i * 2
			})
		}
	}()

	prev := 0
	for range 1000 {
		st := tr.Snapshot()
		require.Equal(t, st.HashDone*2, st.HashTotal)
		require.GreaterOrEqual(t, st.HashDone, prev)
		prev = st.HashDone
	}
	wg.Wait()
}

// TestScanStatusJSONSeconds tests that durations encode as whole seconds.
func TestScanStatusJSONSeconds(t *testing.T) {
	st := ScanStatus{
		Phase:   types.PhaseHashing,
		Elapsed: 90*time.Second + 400*time.Millisecond,
		Budget:  time.Hour,
		ETA:     130 * time.Second,
		HasETA:  true,
	}

	data, err := json.Marshal(st)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, float64(90), got["elapsed_seconds"])
	assert.Equal(t, float64(3600), got["budget_seconds"])
	assert.Equal(t, float64(130), got["eta_seconds"])
	assert.Equal(t, "hashing", got["phase"])
	assert.NotContains(t, got, "elapsed")
	assert.NotContains(t, got, "eta")
}
