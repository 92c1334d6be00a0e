package chat

import "sync"

// Groups is the subscription table: group id -> users who want live events
// for it. Soft state, independent of durable membership: entries appear on
// join_group frames and vanish with the user's last connection. It never
// implies authorization; the durable-write paths check membership before
// they broadcast.
type Groups struct {
	mu   sync.RWMutex
	subs map[int64]map[int64]struct{} // group -> set of user ids
}

func NewGroups() *Groups {
	return &Groups{subs: make(map[int64]map[int64]struct{})}
}

func (g *Groups) Join(groupID, userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m := g.subs[groupID]
	if m == nil {
		m = make(map[int64]struct{})
		g.subs[groupID] = m
	}
	m[userID] = struct{}{}
}

// Leave removes the user; an emptied group leaves no entry behind.
func (g *Groups) Leave(groupID, userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if m := g.subs[groupID]; m != nil {
		delete(m, userID)
		if len(m) == 0 {
			delete(g.subs, groupID)
		}
	}
}

// SubscribersOf returns a snapshot of the group's subscriber ids; empty
// for an unknown group.
func (g *Groups) SubscribersOf(groupID int64) []int64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m := g.subs[groupID]
	if len(m) == 0 {
		return nil
	}
	out := make([]int64, 0, len(m))
	for uid := range m {
		out = append(out, uid)
	}
	return out
}

// DropUser removes the user from every group. Called when the user's last
// connection goes away so stale subscriptions don't accumulate across
// reconnect churn.
func (g *Groups) DropUser(userID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for gid, m := range g.subs {
		delete(m, userID)
		if len(m) == 0 {
			delete(g.subs, gid)
		}
	}
}

// KnownGroups reports how many groups currently have subscribers.
func (g *Groups) KnownGroups() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.subs)
}
