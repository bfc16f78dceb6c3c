package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docvoice/internal/synth"
)

func TestRun_StateTransitions(t *testing.T) {
	run := newRun("run-1", "u", "doc.pdf", synth.IDDirect)
	require.Equal(t, StatusIdle, run.Status)

	for _, status := range []Status{StatusExtracting, StatusChunking, StatusSynthesizing, StatusDone} {
		before := run.UpdatedAt
		time.Sleep(time.Millisecond)
		run.SetStatus(status)

		assert.Equal(t, status, run.Status)
		assert.True(t, run.UpdatedAt.After(before), "UpdatedAt advances on %s", status)
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusEmptyText, StatusDone, StatusQuotaExceeded, StatusFailed} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []Status{StatusIdle, StatusExtracting, StatusChunking, StatusSynthesizing} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestRun_SnapshotCopiesErrors(t *testing.T) {
	run := newRun("run-1", "u", "doc.pdf", synth.IDDirect)
	run.SetTotalChunks(3)
	run.IncrChunksDone()
	run.AddError("chunk 2: boom")

	snap := run.Snapshot()
	assert.Equal(t, "run-1", snap.ID)
	assert.Equal(t, 3, snap.Progress.TotalChunks)
	assert.Equal(t, 1, snap.Progress.ChunksDone)
	assert.Equal(t, []string{"chunk 2: boom"}, snap.Progress.Errors)

	run.AddError("later")
	assert.Len(t, snap.Progress.Errors, 1)
}

func TestRun_SnapshotEmptyErrors(t *testing.T) {
	snap := newRun("r", "u", "f", synth.IDDirect).Snapshot()
	assert.NotNil(t, snap.Progress.Errors)
	assert.Empty(t, snap.Progress.Errors)
}

func TestRunStore_PutGet(t *testing.T) {
	store := NewRunStore(time.Hour)
	store.Put(newRun("a", "u", "f", synth.IDDirect))

	assert.NotNil(t, store.Get("a"))
	assert.Nil(t, store.Get("missing"))
	assert.Equal(t, 1, store.Len())
}

func TestRunStore_CleanupEvictsOnlyExpiredTerminalRuns(t *testing.T) {
	store := NewRunStore(time.Millisecond)

	done := newRun("done", "u", "f", synth.IDDirect)
	done.SetStatus(StatusDone)
	active := newRun("active", "u", "f", synth.IDDirect)
	active.SetStatus(StatusSynthesizing)
	store.Put(done)
	store.Put(active)

	time.Sleep(5 * time.Millisecond)
	store.Cleanup()

	assert.Nil(t, store.Get("done"))
	assert.NotNil(t, store.Get("active"))
}
