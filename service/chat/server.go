package chat

import (
	"context"
	"sync"
	"time"
)

// TokenVerifier resolves a bearer token into a user id. Connections that
// fail verification are closed before they touch the registry.
type TokenVerifier func(token string) (int64, error)

// PresenceStore mirrors local presence into shared storage (redis keys
// with a TTL) so other nodes can answer "is this user online". Optional;
// failures only log.
type PresenceStore interface {
	Online(ctx context.Context, userID int64, ttl time.Duration) error
	Offline(ctx context.Context, userID int64) error
}

type Conf struct {
	SendQueueSize int           // per-connection outbound buffer
	ReadLimit     int64         // max inbound frame size
	WriteWait     time.Duration // per-write deadline
	PongWait      time.Duration // read deadline, refreshed by pongs
	PingPeriod    time.Duration // must be < PongWait
	PresenceTTL   time.Duration // shared presence key lifetime
}

func (c *Conf) norm() {
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 64
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = 1 << 20 // 1MB
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = c.PongWait * 9 / 10
	}
	if c.PresenceTTL <= 0 {
		c.PresenceTTL = 2 * time.Minute
	}
}

// Server owns the realtime state for one gateway node: the presence
// registry, the group subscription table and the dispatcher. It is handed
// to whatever issues broadcasts instead of living behind a global.
type Server struct {
	conf     Conf
	reg      *Registry
	groups   *Groups
	disp     *Dispatcher
	verify   TokenVerifier
	presence PresenceStore
}

func NewServer(conf Conf, verify TokenVerifier) *Server {
	conf.norm()
	reg := NewRegistry()
	groups := NewGroups()
	s := &Server{
		conf:   conf,
		reg:    reg,
		groups: groups,
		disp:   NewDispatcher(reg, groups),
		verify: verify,
	}
	// The dispatcher prunes dead connections in the send path; when that
	// removes a user's last connection the presence key must go too, same
	// as the read-loop teardown.
	s.disp.userGone = s.mirrorOffline
	return s
}

// SetPresenceStore installs the shared presence mirror; call before
// serving traffic.
func (s *Server) SetPresenceStore(p PresenceStore) { s.presence = p }

func (s *Server) Registry() *Registry     { return s.reg }
func (s *Server) Groups() *Groups         { return s.groups }
func (s *Server) Dispatcher() *Dispatcher { return s.disp }

// StartPresenceRefresher re-sets every connected user's presence key at
// half the TTL, so a connection outliving PresenceTTL never expires out
// of the shared mirror. Returns an idempotent stop func.
func (s *Server) StartPresenceRefresher() (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.conf.PresenceTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.refreshPresence()
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

func (s *Server) refreshPresence() {
	if s.presence == nil {
		return
	}
	for _, uid := range s.reg.Users() {
		s.mirrorOnline(uid)
	}
}
