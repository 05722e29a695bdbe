package jobs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLifecycle(t *testing.T) {
	tr := NewTracker()
	id := tr.Start()

	snap, err := tr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, snap.Status)
	assert.Nil(t, snap.ETASeconds)

	tr.SetTotals(id, 2, 5)
	snap, err = tr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, 2, snap.DocsTotal)
	assert.Equal(t, 5, snap.PagesTotal)

	for i := 0; i < 5; i++ {
		tr.PageDone(id, 100*time.Millisecond)
	}
	tr.DocDone(id)
	tr.DocDone(id)
	tr.Complete(id)

	snap, err = tr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, snap.Status)
	assert.Equal(t, 2, snap.DocsDone)
	assert.Equal(t, 5, snap.PagesDone)
	assert.Zero(t, snap.FailedPages)
	assert.False(t, snap.FinishedAt.IsZero())
}

func TestGetUnknownJob(t *testing.T) {
	tr := NewTracker()
	_, err := tr.Get("no-such-job")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountersMonotoneAndBounded(t *testing.T) {
	tr := NewTracker()
	id := tr.Start()
	tr.SetTotals(id, 1, 3)

	prevPages, prevDocs := 0, 0
	for i := 0; i < 10; i++ {
		tr.PageDone(id, time.Millisecond)
		tr.DocDone(id)

		snap, err := tr.Get(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, snap.PagesDone, prevPages)
		assert.GreaterOrEqual(t, snap.DocsDone, prevDocs)
		assert.LessOrEqual(t, snap.PagesDone, snap.PagesTotal)
		assert.LessOrEqual(t, snap.DocsDone, snap.DocsTotal)
		prevPages, prevDocs = snap.PagesDone, snap.DocsDone
	}
}

func TestETANullUntilFirstSample(t *testing.T) {
	tr := NewTracker()
	id := tr.Start()
	tr.SetTotals(id, 1, 4)

	snap, err := tr.Get(id)
	require.NoError(t, err)
	assert.Nil(t, snap.ETASeconds)

	tr.PageDone(id, 2*time.Second)
	snap, err = tr.Get(id)
	require.NoError(t, err)
	require.NotNil(t, snap.ETASeconds)
	// 3 pages remain at ~2 s/page.
	assert.InDelta(t, 6.0, *snap.ETASeconds, 0.1)
	assert.GreaterOrEqual(t, *snap.ETASeconds, 0.0)
}

func TestETADecaysTowardRecentSamples(t *testing.T) {
	tr := NewTracker()
	id := tr.Start()
	tr.SetTotals(id, 1, 100)

	tr.PageDone(id, 10*time.Second)
	for i := 0; i < 30; i++ {
		tr.PageDone(id, time.Second)
	}

	snap, err := tr.Get(id)
	require.NoError(t, err)
	require.NotNil(t, snap.ETASeconds)
	// 69 pages remain; the average should have decayed well below the
	// initial 10 s sample.
	assert.Less(t, *snap.ETASeconds, 69*2.0)
}

func TestFailedPages(t *testing.T) {
	tr := NewTracker()
	id := tr.Start()
	tr.SetTotals(id, 1, 3)

	tr.PageDone(id, time.Millisecond)
	tr.PageFailed(id)
	tr.PageFailed(id)

	snap, err := tr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.FailedPages)
	assert.Equal(t, 3, snap.PagesDone)
}

func TestSkipPages(t *testing.T) {
	tr := NewTracker()
	id := tr.Start()
	tr.SetTotals(id, 2, 10)

	tr.SkipPages(id, 4)

	snap, err := tr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.PagesDone)
	// Skips carry no duration samples, so no ETA yet.
	assert.Nil(t, snap.ETASeconds)
}

func TestTerminalStatesFreeze(t *testing.T) {
	tr := NewTracker()
	id := tr.Start()
	tr.SetTotals(id, 1, 2)
	tr.Fail(id, errors.New("index unavailable"))

	// Updates after a terminal state are dropped.
	tr.PageDone(id, time.Millisecond)
	tr.DocDone(id)
	tr.Complete(id)

	snap, err := tr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "index unavailable", snap.Error)
	assert.Zero(t, snap.PagesDone)
	assert.Zero(t, snap.DocsDone)
}

func TestConcurrentJobsAreIndependent(t *testing.T) {
	tr := NewTracker()
	a := tr.Start()
	b := tr.Start()
	require.NotEqual(t, a, b)

	tr.SetTotals(a, 1, 1)
	tr.PageDone(a, time.Millisecond)
	tr.Complete(a)

	snapB, err := tr.Get(b)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, snapB.Status)
	assert.Zero(t, snapB.PagesDone)
}
