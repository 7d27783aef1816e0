package purchase

import (
	"fmt"
	"sync"
	"time"
)

// Observer receives the final stage of every processed record
type Observer interface {
	ObserveRecord(stage Stage)
}

// Tracker tracks records through the transaction stages for one run
type Tracker struct {
	mu       sync.RWMutex
	records  map[string]*TrackedRecord
	counts   map[Stage]int
	observer Observer
	now      func() time.Time
}

// TrackedRecord is the last known state of a record
type TrackedRecord struct {
	RecordID    string
	Stage       Stage
	FailedStage Stage
	OrderNumber string
	StartedAt   time.Time
	FinishedAt  time.Time
	Attempts    int // times the record id was seen in this run
	Error       string
}

// Summary counts final outcomes
type Summary struct {
	Completed int
	Skipped   int
	Failed    int
}

func (s Summary) String() string {
	return fmt.Sprintf("completed=%d skipped=%d failed=%d", s.Completed, s.Skipped, s.Failed)
}

// NewTracker creates a tracker; observer may be nil
func NewTracker(observer Observer) *Tracker {
	return &Tracker{
		records:  make(map[string]*TrackedRecord),
		counts:   make(map[Stage]int),
		observer: observer,
		now:      time.Now,
	}
}

// Begin starts tracking a record and reports whether the same record id was
// already completed earlier in the run
func (t *Tracker) Begin(recordID string) (completedBefore bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, exists := t.records[recordID]
	if !exists {
		rec = &TrackedRecord{RecordID: recordID}
		t.records[recordID] = rec
	}
	completedBefore = exists && rec.Stage == StageCompleted

	rec.Stage = StageValidating
	rec.StartedAt = t.now()
	rec.FinishedAt = time.Time{}
	rec.Error = ""
	rec.Attempts++

	return completedBefore
}

// Advance moves a tracked record to stage
func (t *Tracker) Advance(recordID string, stage Stage) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, exists := t.records[recordID]
	if !exists {
		return fmt.Errorf("record %s not tracked", recordID)
	}
	rec.Stage = stage
	return nil
}

// Record stores the final outcome of a record
func (t *Tracker) Record(outcome *Outcome) {
	t.mu.Lock()
	rec, exists := t.records[outcome.RecordID]
	if !exists {
		rec = &TrackedRecord{RecordID: outcome.RecordID, StartedAt: t.now(), Attempts: 1}
		t.records[outcome.RecordID] = rec
	}
	rec.Stage = outcome.Stage
	rec.FailedStage = outcome.FailedStage
	rec.OrderNumber = outcome.OrderNumber
	rec.FinishedAt = t.now()
	if outcome.Err != nil {
		rec.Error = outcome.Err.Error()
	}
	t.counts[outcome.Stage]++
	t.mu.Unlock()

	if t.observer != nil {
		t.observer.ObserveRecord(outcome.Stage)
	}
}

// Get returns a copy of the tracked state of a record
func (t *Tracker) Get(recordID string) (TrackedRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, exists := t.records[recordID]
	if !exists {
		return TrackedRecord{}, false
	}
	return *rec, true
}

// Summary returns the outcome counts so far
func (t *Tracker) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Summary{
		Completed: t.counts[StageCompleted],
		Skipped:   t.counts[StageSkipped],
		Failed:    t.counts[StageFailed],
	}
}
