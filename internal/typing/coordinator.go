package typing

import (
	"sort"
	"sync"
)

// Coordinator tracks the set of currently-typing users per conversation.
// Membership is toggled only by explicit start/stop signals and by the
// disconnect cleanup path; there is no timer-based auto-stop. State is
// process-lifetime and rebuilt from zero on restart.
type Coordinator struct {
	mu    sync.RWMutex
	byCov map[string]map[string]struct{}
}

func NewCoordinator() *Coordinator {
	return &Coordinator{byCov: make(map[string]map[string]struct{})}
}

// Start flags the user as typing and returns the updated set.
func (c *Coordinator) Start(conversationID, userID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.byCov[conversationID]
	if !ok {
		set = make(map[string]struct{})
		c.byCov[conversationID] = set
	}
	set[userID] = struct{}{}
	return sorted(set)
}

// Stop clears the user's typing flag and returns the updated set. Idempotent.
func (c *Coordinator) Stop(conversationID, userID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.byCov[conversationID]
	if !ok {
		return nil
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(c.byCov, conversationID)
		return nil
	}
	return sorted(set)
}

// Snapshot returns the current typing set for a conversation.
func (c *Coordinator) Snapshot(conversationID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sorted(c.byCov[conversationID])
}

// ClearUser removes the user from every conversation's typing set and returns
// the ids of the conversations that changed. Runs on every transport close so
// a client that disconnects mid-typing leaves no stale entry.
func (c *Coordinator) ClearUser(userID string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var changed []string
	for conversationID, set := range c.byCov {
		if _, ok := set[userID]; !ok {
			continue
		}
		delete(set, userID)
		if len(set) == 0 {
			delete(c.byCov, conversationID)
		}
		changed = append(changed, conversationID)
	}
	sort.Strings(changed)
	return changed
}

// Stats reports coordinator size for monitoring.
func (c *Coordinator) Stats() (conversations, users int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, set := range c.byCov {
		users += len(set)
	}
	return len(c.byCov), users
}

func sorted(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
