package purchase

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stageObserver struct {
	mu     sync.Mutex
	stages []Stage
}

func (o *stageObserver) ObserveRecord(stage Stage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage)
}

func TestTracker_Lifecycle(t *testing.T) {
	observer := &stageObserver{}
	tracker := NewTracker(observer)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return start }

	assert.False(t, tracker.Begin("1001"))

	rec, ok := tracker.Get("1001")
	require.True(t, ok)
	assert.Equal(t, StageValidating, rec.Stage)
	assert.Equal(t, 1, rec.Attempts)
	assert.Equal(t, start, rec.StartedAt)

	require.NoError(t, tracker.Advance("1001", StageCreating))
	rec, _ = tracker.Get("1001")
	assert.Equal(t, StageCreating, rec.Stage)

	tracker.Record(&Outcome{RecordID: "1001", Stage: StageCompleted, OrderNumber: "600010"})
	rec, _ = tracker.Get("1001")
	assert.Equal(t, StageCompleted, rec.Stage)
	assert.Equal(t, "600010", rec.OrderNumber)
	assert.Equal(t, start, rec.FinishedAt)

	assert.True(t, tracker.Begin("1001"), "completed id seen again")
	assert.Equal(t, []Stage{StageCompleted}, observer.stages)
}

func TestTracker_AdvanceUntracked(t *testing.T) {
	tracker := NewTracker(nil)
	assert.Error(t, tracker.Advance("nope", StageCreating))

	_, ok := tracker.Get("nope")
	assert.False(t, ok)
}

func TestTracker_Summary(t *testing.T) {
	tracker := NewTracker(nil)

	tracker.Record(&Outcome{RecordID: "1", Stage: StageCompleted})
	tracker.Record(&Outcome{RecordID: "2", Stage: StageSkipped})
	tracker.Record(&Outcome{RecordID: "3", Stage: StageFailed, FailedStage: StageCreating, Err: errors.New("boom")})
	tracker.Record(&Outcome{RecordID: "4", Stage: StageCompleted})

	summary := tracker.Summary()
	assert.Equal(t, Summary{Completed: 2, Skipped: 1, Failed: 1}, summary)
	assert.Equal(t, "completed=2 skipped=1 failed=1", summary.String())

	rec, ok := tracker.Get("3")
	require.True(t, ok)
	assert.Equal(t, StageCreating, rec.FailedStage)
	assert.Equal(t, "boom", rec.Error)
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker(&stageObserver{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Begin("same")
			tracker.Record(&Outcome{RecordID: "same", Stage: StageSkipped})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, tracker.Summary().Skipped)
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "attaching_lines", StageAttachingLines.String())
	assert.Equal(t, "failed", StageFailed.String())
	assert.Equal(t, "unknown", Stage(99).String())
}
