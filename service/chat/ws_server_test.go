package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// presenceLog records mirror calls so tests can assert the gateway's
// presence side effects without redis.
type presenceLog struct {
	mu      sync.Mutex
	online  map[int64]int
	offline map[int64]int
}

func newPresenceLog() *presenceLog {
	return &presenceLog{online: make(map[int64]int), offline: make(map[int64]int)}
}

func (p *presenceLog) Online(_ context.Context, userID int64, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID]++
	return nil
}

func (p *presenceLog) Offline(_ context.Context, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offline[userID]++
	return nil
}

func (p *presenceLog) onlineCount(userID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *presenceLog) offlineCount(userID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offline[userID]
}

func newGateway(t *testing.T, conf Conf, verify TokenVerifier) (*Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := NewServer(conf, verify)
	r := gin.New()
	r.GET("/ws/:token", s.HandleWS)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return s, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/"
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHandleWSRejectsBadToken(t *testing.T) {
	s, base := newGateway(t, Conf{}, func(string) (int64, error) {
		return 0, errors.New("signature mismatch")
	})

	conn, _, err := websocket.DefaultDialer.Dial(base+"bad-token", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err = conn.ReadMessage(); err == nil {
		t.Fatal("read succeeded on a rejected connection")
	}
	var ce *websocket.CloseError
	if !errors.As(err, &ce) || ce.Code != CloseUnauthorized {
		t.Fatalf("close = %v, want code %d", err, CloseUnauthorized)
	}

	// the failed handshake must leave no trace in the registry
	if got := s.Registry().NumConns(); got != 0 {
		t.Fatalf("NumConns = %d, want 0", got)
	}
	if got := s.Registry().KnownUsers(); got != 0 {
		t.Fatalf("KnownUsers = %d, want 0", got)
	}
}

func TestHandleWSSessionLifecycle(t *testing.T) {
	presence := newPresenceLog()
	s, base := newGateway(t, Conf{}, func(token string) (int64, error) {
		if token != "good" {
			return 0, errors.New("unknown token")
		}
		return 7, nil
	})
	s.SetPresenceStore(presence)

	conn, _, err := websocket.DefaultDialer.Dial(base+"good", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read confirmation: %v", err)
	}
	var confirmed ConnectionConfirmedFrame
	if err := json.Unmarshal(data, &confirmed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if confirmed.Type != TypeConnectionConfirmed || confirmed.UserID != 7 {
		t.Fatalf("first frame = %+v", confirmed)
	}

	waitFor(t, "registration", func() bool {
		return s.Registry().KnownUsers() == 1 && presence.onlineCount(7) >= 1
	})

	// subscribe, then vanish without a proper close handshake
	msg := `{"type":"join_group","group_id":10}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, "subscription", func() bool {
		return len(s.Groups().SubscribersOf(10)) == 1
	})
	_ = conn.Close()

	waitFor(t, "teardown", func() bool {
		return s.Registry().NumConns() == 0 &&
			s.Registry().KnownUsers() == 0 &&
			len(s.Groups().SubscribersOf(10)) == 0 &&
			presence.offlineCount(7) == 1
	})

	// a late send finds nothing and resurrects nothing
	s.Dispatcher().SendToUser(7, BuildConnectionConfirmed(7))
	if got := s.Registry().NumConns(); got != 0 {
		t.Fatalf("NumConns after late send = %d, want 0", got)
	}
}
