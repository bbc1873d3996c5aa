package typing

import (
	"reflect"
	"testing"
)

func TestStartStop(t *testing.T) {
	c := NewCoordinator()

	got := c.Start("c1", "alice")
	if !reflect.DeepEqual(got, []string{"alice"}) {
		t.Errorf("after start: %v", got)
	}

	got = c.Start("c1", "bob")
	if !reflect.DeepEqual(got, []string{"alice", "bob"}) {
		t.Errorf("two typers: %v", got)
	}

	got = c.Stop("c1", "alice")
	if !reflect.DeepEqual(got, []string{"bob"}) {
		t.Errorf("after stop: %v", got)
	}

	if got = c.Stop("c1", "bob"); got != nil {
		t.Errorf("empty set should be nil, got %v", got)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c := NewCoordinator()

	if got := c.Stop("c1", "alice"); got != nil {
		t.Errorf("stop on unknown conversation: %v", got)
	}

	c.Start("c1", "alice")
	c.Stop("c1", "alice")
	if got := c.Stop("c1", "alice"); got != nil {
		t.Errorf("double stop: %v", got)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	c := NewCoordinator()
	c.Start("c1", "alice")
	got := c.Start("c1", "alice")
	if !reflect.DeepEqual(got, []string{"alice"}) {
		t.Errorf("repeat start must not duplicate: %v", got)
	}
}

func TestSnapshot(t *testing.T) {
	c := NewCoordinator()
	c.Start("c1", "bob")
	c.Start("c1", "alice")

	if got := c.Snapshot("c1"); !reflect.DeepEqual(got, []string{"alice", "bob"}) {
		t.Errorf("snapshot: %v", got)
	}
	if got := c.Snapshot("missing"); got != nil {
		t.Errorf("unknown conversation snapshot: %v", got)
	}
}

func TestClearUser(t *testing.T) {
	c := NewCoordinator()
	c.Start("c1", "alice")
	c.Start("c2", "alice")
	c.Start("c2", "bob")
	c.Start("c3", "bob")

	changed := c.ClearUser("alice")
	if !reflect.DeepEqual(changed, []string{"c1", "c2"}) {
		t.Errorf("changed conversations: %v", changed)
	}

	if got := c.Snapshot("c1"); got != nil {
		t.Errorf("c1 should be empty: %v", got)
	}
	if got := c.Snapshot("c2"); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Errorf("c2 should keep bob: %v", got)
	}

	if changed = c.ClearUser("alice"); changed != nil {
		t.Errorf("second clear must be a no-op: %v", changed)
	}
}

func TestStats(t *testing.T) {
	c := NewCoordinator()
	c.Start("c1", "alice")
	c.Start("c1", "bob")
	c.Start("c2", "alice")

	conversations, users := c.Stats()
	if conversations != 2 || users != 3 {
		t.Errorf("stats = (%d, %d), want (2, 3)", conversations, users)
	}
}
