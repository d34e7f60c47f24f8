package session

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestRegistry() (*Registry, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRegistry()
	r.now = clock.now
	return r, clock
}

func TestOpen(t *testing.T) {
	r, clock := newTestRegistry()

	s, err := r.Open("127.0.0.1:5000")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(s.ID) != 32 {
		t.Errorf("id length = %d, want 32", len(s.ID))
	}
	if s.Remote != "127.0.0.1:5000" {
		t.Errorf("Remote = %s, want 127.0.0.1:5000", s.Remote)
	}
	if !s.ConnectedAt.Equal(clock.t) || !s.LastActivity.Equal(clock.t) {
		t.Errorf("timestamps = %v/%v, want %v", s.ConnectedAt, s.LastActivity, clock.t)
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}
}

func TestUniqueIDs(t *testing.T) {
	r := NewRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s, err := r.Open("remote")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if seen[s.ID] {
			t.Fatalf("duplicate id %s", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestTouch(t *testing.T) {
	r, clock := newTestRegistry()
	s, _ := r.Open("remote")

	clock.t = clock.t.Add(time.Minute)
	if !r.Touch(s.ID) {
		t.Fatal("Touch returned false for an open session")
	}
	if r.Touch("missing") {
		t.Error("Touch returned true for an unknown session")
	}

	got, ok := r.Get(s.ID)
	if !ok {
		t.Fatal("session not found")
	}
	if got.Actions != 1 {
		t.Errorf("Actions = %d, want 1", got.Actions)
	}
	if !got.LastActivity.Equal(clock.t) {
		t.Errorf("LastActivity = %v, want %v", got.LastActivity, clock.t)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r, _ := newTestRegistry()
	s, _ := r.Open("remote")

	got, _ := r.Get(s.ID)
	got.Actions = 99

	again, _ := r.Get(s.ID)
	if again.Actions != 0 {
		t.Errorf("Actions = %d, want 0", again.Actions)
	}
}

func TestClose(t *testing.T) {
	r, _ := newTestRegistry()
	s, _ := r.Open("remote")

	r.Close(s.ID)
	r.Close(s.ID)

	if _, ok := r.Get(s.ID); ok {
		t.Error("session still present after Close")
	}
	if r.Count() != 0 {
		t.Errorf("Count = %d, want 0", r.Count())
	}
}

func TestListOrder(t *testing.T) {
	r, clock := newTestRegistry()
	first, _ := r.Open("a")
	clock.t = clock.t.Add(time.Second)
	second, _ := r.Open("b")

	list := r.List()
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Errorf("order = [%s %s], want [%s %s]", list[0].ID, list[1].ID, first.ID, second.ID)
	}
}

func TestIdle(t *testing.T) {
	r, clock := newTestRegistry()
	stale, _ := r.Open("stale")
	active, _ := r.Open("active")

	clock.t = clock.t.Add(10 * time.Minute)
	r.Touch(active.ID)

	idle := r.Idle(5 * time.Minute)
	if len(idle) != 1 || idle[0] != stale.ID {
		t.Errorf("Idle = %v, want [%s]", idle, stale.ID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := r.Open("remote")
			if err != nil {
				t.Error(err)
				return
			}
			r.Touch(s.ID)
			r.List()
			r.Close(s.ID)
		}()
	}
	wg.Wait()

	if r.Count() != 0 {
		t.Errorf("Count = %d, want 0", r.Count())
	}
}
