package listview

import (
	"testing"
	"time"

	"go-freight/internal/common/models"
)

func TestDebounceCommitsOnlyLastEdit(t *testing.T) {
	commits := make(chan models.FilterCriteria, 8)
	d := NewDebouncedQuery(models.FilterCriteria{}, 100*time.Millisecond, func(c models.FilterCriteria) {
		commits <- c
	}, nil)
	defer d.Stop()

	for _, s := range []string{"C", "Ch", "Che"} {
		d.Update(models.FilterCriteria{Search: s})
		time.Sleep(20 * time.Millisecond)
	}
	if got := d.Committed().Search; got != "" {
		t.Errorf("Expected nothing committed during the burst, got %q", got)
	}

	select {
	case c := <-commits:
		if c.Search != "Che" {
			t.Errorf("Expected commit of %q, got %q", "Che", c.Search)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for commit")
	}

	select {
	case c := <-commits:
		t.Errorf("Expected exactly one commit, got another: %q", c.Search)
	case <-time.After(250 * time.Millisecond):
	}
	if d.Pending() {
		t.Error("Expected no pending edit after commit")
	}
}

func TestDebounceFlushAndStop(t *testing.T) {
	count := 0
	d := NewDebouncedQuery(models.FilterCriteria{}, time.Hour, func(models.FilterCriteria) { count++ }, nil)

	d.Update(models.FilterCriteria{Search: "ABC"})
	d.Flush()
	if count != 1 || d.Committed().Search != "ABC" {
		t.Errorf("Expected immediate commit of ABC, got %d commits and %q", count, d.Committed().Search)
	}

	// nothing pending
	d.Flush()
	if count != 1 {
		t.Errorf("Expected flush without pending edit to be a no-op, got %d commits", count)
	}

	d.Update(models.FilterCriteria{Search: "XYZ"})
	d.Stop()
	d.Flush()
	d.Update(models.FilterCriteria{Search: "after"})
	if count != 1 || d.Committed().Search != "ABC" {
		t.Errorf("Expected stopped query to drop edits, got %d commits and %q", count, d.Committed().Search)
	}
}

func TestDebounceCommitsRepeatedValue(t *testing.T) {
	count := 0
	d := NewDebouncedQuery(models.FilterCriteria{Search: "same"}, time.Hour, func(models.FilterCriteria) { count++ }, nil)
	d.Update(models.FilterCriteria{Search: "same"})
	d.Flush()
	if count != 1 {
		t.Errorf("Expected unchanged value to still commit, got %d commits", count)
	}
}
