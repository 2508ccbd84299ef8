package event

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDebouncer(window time.Duration) (*Debouncer, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	d := NewDebouncer(window)
	d.now = clock.now
	return d, clock
}

func TestDebouncer_Window(t *testing.T) {
	d, clock := newTestDebouncer(10 * time.Second)
	opened := &Event{Type: TypeMROpened, Provider: "gitlab", ProjectID: "g/app", MRNumber: 42}
	updated := &Event{Type: TypeMRUpdated, Provider: "gitlab", ProjectID: "g/app", MRNumber: 42}

	if !d.ShouldProcess(opened) {
		t.Fatal("first event should be processed")
	}
	clock.advance(3 * time.Second)
	if d.ShouldProcess(updated) {
		t.Error("update of the same merge request inside the window should be dropped")
	}
	clock.advance(10 * time.Second)
	if !d.ShouldProcess(updated) {
		t.Error("event after the window should be processed")
	}
}

func TestDebouncer_DistinctMergeRequests(t *testing.T) {
	d, _ := newTestDebouncer(10 * time.Second)

	for _, e := range []*Event{
		{Provider: "gitlab", ProjectID: "g/app", MRNumber: 1},
		{Provider: "gitlab", ProjectID: "g/app", MRNumber: 2},
		{Provider: "gitlab", ProjectID: "g/lib", MRNumber: 1},
		{Provider: "github", ProjectID: "g/app", MRNumber: 1},
	} {
		if !d.ShouldProcess(e) {
			t.Errorf("%s should be processed", e.Key())
		}
	}
}

func TestDebouncer_ZeroWindow(t *testing.T) {
	d, _ := newTestDebouncer(0)
	e := &Event{Provider: "gitlab", ProjectID: "g/app", MRNumber: 1}

	if !d.ShouldProcess(e) || !d.ShouldProcess(e) {
		t.Error("zero window should process every event")
	}
}

func TestDebouncer_Forget(t *testing.T) {
	d, _ := newTestDebouncer(time.Minute)
	e := &Event{Provider: "gitlab", ProjectID: "g/app", MRNumber: 1}

	d.ShouldProcess(e)
	d.Forget(e)
	if !d.ShouldProcess(e) {
		t.Error("forgotten event should be processed again")
	}
}

func TestDebouncer_Cleanup(t *testing.T) {
	d, clock := newTestDebouncer(time.Second)
	d.ShouldProcess(&Event{Provider: "gitlab", ProjectID: "old", MRNumber: 1})
	clock.advance(5 * time.Second)
	d.ShouldProcess(&Event{Provider: "gitlab", ProjectID: "new", MRNumber: 1})

	d.Cleanup()

	if len(d.seen) != 1 {
		t.Errorf("len(seen) = %d, want 1", len(d.seen))
	}
	if _, ok := d.seen["gitlab:new!1"]; !ok {
		t.Error("recent record was removed")
	}
}
