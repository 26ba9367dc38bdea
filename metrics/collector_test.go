package metrics

import (
	"sync"
	"testing"
)

func TestCollector_CountsAndSnapshot(t *testing.T) {
	c := NewCollector("intake", "Mortgage intake")

	c.IncCommit()
	c.IncCommit()
	c.IncSettle()
	c.IncQueued()
	c.IncQueueDeduped()
	c.IncValidationRun()
	c.IncValidationFailure()
	c.IncSaveFailure()
	c.IncSubmission()

	s := c.Snapshot()
	if s.Commits != 2 || s.Settles != 1 {
		t.Errorf("navigation counters wrong: %+v", s)
	}
	if s.Queued != 1 || s.QueueDeduped != 1 || s.QueueDropped != 0 {
		t.Errorf("queue counters wrong: %+v", s)
	}
	if s.ValidationRuns != 1 || s.ValidationFailures != 1 {
		t.Errorf("validation counters wrong: %+v", s)
	}
	if s.SaveFailures != 1 || s.Submissions != 1 {
		t.Errorf("lifecycle counters wrong: %+v", s)
	}
	if s.FormID != "intake" || s.FormName != "Mortgage intake" {
		t.Errorf("dimensions lost: %+v", s)
	}
}

func TestCollector_NilReceiverSafe(t *testing.T) {
	var c *Collector
	c.IncCommit()
	c.IncSettle()
	c.IncQueued()
	if s := c.Snapshot(); s.Commits != 0 {
		t.Errorf("nil collector snapshot not zero: %+v", s)
	}
}

func TestCollector_ConcurrentIncrements(t *testing.T) {
	c := NewCollector("f", "")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncCommit()
			c.IncSettle()
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.Commits != 50 || s.Settles != 50 {
		t.Errorf("lost increments: %+v", s)
	}
}
