package chat

import "sync"

// Registry is the presence map: user id -> live connections. All mutation
// happens under the lock; reads for fan-out take snapshots so iteration
// never races a register/unregister from another goroutine.
type Registry struct {
	mu     sync.RWMutex
	byUser map[int64]map[string]*Client // user -> conn_id -> client
	byConn map[string]*Client           // conn_id -> client
}

func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[int64]map[string]*Client),
		byConn: make(map[string]*Client),
	}
}

// Register adds the client under its user. Idempotent for the same pair.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.byUser[c.UserID]
	if m == nil {
		m = make(map[string]*Client)
		r.byUser[c.UserID] = m
	}
	m[c.ConnID] = c
	r.byConn[c.ConnID] = c
}

// Unregister removes the client; a user whose last connection goes away
// leaves no residual entry behind. Reports whether the client was present
// and whether it was the user's last connection.
func (r *Registry) Unregister(c *Client) (removed, last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byConn[c.ConnID]; !ok {
		return false, false
	}
	delete(r.byConn, c.ConnID)
	if m := r.byUser[c.UserID]; m != nil {
		delete(m, c.ConnID)
		if len(m) == 0 {
			delete(r.byUser, c.UserID)
			return true, true
		}
	}
	return true, false
}

// ConnectionsOf returns a snapshot of the user's live connections; empty
// slice for an unknown user.
func (r *Registry) ConnectionsOf(userID int64) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// GetByConnID looks a client up by its connection handle.
func (r *Registry) GetByConnID(connID string) *Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byConn[connID]
}

// Users returns a snapshot of every user id holding at least one
// connection.
func (r *Registry) Users() []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]int64, 0, len(r.byUser))
	for uid := range r.byUser {
		out = append(out, uid)
	}
	return out
}

// KnownUsers reports how many users currently hold at least one connection.
func (r *Registry) KnownUsers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// NumConns reports the total number of live connections.
func (r *Registry) NumConns() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}
