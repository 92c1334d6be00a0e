package chat

import (
	"encoding/json"
	"testing"
	"time"
)

func TestConfDefaults(t *testing.T) {
	var c Conf
	c.norm()
	if c.SendQueueSize != 64 {
		t.Fatalf("SendQueueSize = %d, want 64", c.SendQueueSize)
	}
	if c.ReadLimit != 1<<20 {
		t.Fatalf("ReadLimit = %d, want 1MB", c.ReadLimit)
	}
	if c.PingPeriod >= c.PongWait {
		t.Fatalf("PingPeriod %v must be below PongWait %v", c.PingPeriod, c.PongWait)
	}
	if c.PresenceTTL != 2*time.Minute {
		t.Fatalf("PresenceTTL = %v, want 2m", c.PresenceTTL)
	}
}

func TestHandleControlTypingExcludesAllSenderConnections(t *testing.T) {
	s := NewServer(Conf{}, func(string) (int64, error) { return 0, nil })

	// the typing user holds two connections; neither may receive the echo
	sender1 := NewClient("conn-s1", 1, nil, 4)
	sender2 := NewClient("conn-s2", 1, nil, 4)
	peer := NewClient("conn-p", 2, nil, 4)
	for _, c := range []*Client{sender1, sender2, peer} {
		s.reg.Register(c)
	}

	s.handleControl(sender1, JoinGroup{GroupID: 10})
	s.handleControl(peer, JoinGroup{GroupID: 10})
	s.handleControl(sender1, Typing{GroupID: 10})

	expectEmpty(t, sender1)
	expectEmpty(t, sender2)

	var got UserTypingFrame
	if err := json.Unmarshal(recv(t, peer), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != TypeUserTyping || got.UserID != 1 || got.GroupID != 10 {
		t.Fatalf("peer got %+v", got)
	}

	s.handleControl(sender1, StopTyping{GroupID: 10})
	if err := json.Unmarshal(recv(t, peer), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Type != TypeUserStoppedTyping {
		t.Fatalf("peer got %+v, want user_stopped_typing", got)
	}
}

func TestHandleControlLeaveStopsDelivery(t *testing.T) {
	s := NewServer(Conf{}, func(string) (int64, error) { return 0, nil })
	a := NewClient("conn-a", 1, nil, 4)
	b := NewClient("conn-b", 2, nil, 4)
	s.reg.Register(a)
	s.reg.Register(b)

	s.handleControl(a, JoinGroup{GroupID: 10})
	s.handleControl(b, JoinGroup{GroupID: 10})
	s.handleControl(b, LeaveGroup{GroupID: 10})

	s.handleControl(a, Typing{GroupID: 10})
	expectEmpty(t, b)
}

func TestRefreshPresenceResetsEveryUser(t *testing.T) {
	presence := newPresenceLog()
	s := NewServer(Conf{}, func(string) (int64, error) { return 0, nil })
	s.SetPresenceStore(presence)
	s.reg.Register(NewClient("conn-1", 1, nil, 4))
	s.reg.Register(NewClient("conn-2", 2, nil, 4))

	for i := 0; i < 3; i++ {
		s.refreshPresence()
	}

	for _, uid := range []int64{1, 2} {
		if got := presence.onlineCount(uid); got != 3 {
			t.Fatalf("user %d refreshed %d times, want 3", uid, got)
		}
	}
}

func TestPresenceRefresherOutlivesTTL(t *testing.T) {
	presence := newPresenceLog()
	s := NewServer(Conf{PresenceTTL: 40 * time.Millisecond},
		func(string) (int64, error) { return 0, nil })
	s.SetPresenceStore(presence)
	s.reg.Register(NewClient("conn-1", 1, nil, 4))

	stop := s.StartPresenceRefresher()
	defer stop()

	// a connection held across several TTL windows keeps getting its key
	// re-set
	waitFor(t, "presence refreshes", func() bool {
		return presence.onlineCount(1) >= 2
	})
	stop()
}

func TestDroppedLastConnectionClearsPresence(t *testing.T) {
	presence := newPresenceLog()
	s := NewServer(Conf{SendQueueSize: 1}, func(string) (int64, error) { return 0, nil })
	s.SetPresenceStore(presence)

	slow := NewClient("conn-slow", 1, nil, 1)
	s.reg.Register(slow)
	s.groups.Join(10, 1)

	s.disp.SendToUser(1, BuildConnectionConfirmed(1))
	s.disp.SendToUser(1, BuildConnectionConfirmed(1)) // overflow: pruned in send path

	if got := s.reg.NumConns(); got != 0 {
		t.Fatalf("NumConns = %d, want 0", got)
	}
	if got := presence.offlineCount(1); got != 1 {
		t.Fatalf("presence offline recorded %d times, want 1", got)
	}
}

func TestDropWithRemainingConnectionKeepsPresence(t *testing.T) {
	presence := newPresenceLog()
	s := NewServer(Conf{SendQueueSize: 1}, func(string) (int64, error) { return 0, nil })
	s.SetPresenceStore(presence)

	slow := NewClient("conn-slow", 1, nil, 1)
	healthy := NewClient("conn-ok", 1, nil, 8)
	s.reg.Register(slow)
	s.reg.Register(healthy)

	s.disp.SendToUser(1, BuildConnectionConfirmed(1))
	s.disp.SendToUser(1, BuildConnectionConfirmed(1))

	if got := s.reg.NumConns(); got != 1 {
		t.Fatalf("NumConns = %d, want 1", got)
	}
	if got := presence.offlineCount(1); got != 0 {
		t.Fatalf("presence went offline with a live connection remaining")
	}
}

func TestHandleControlUnknownIsIgnored(t *testing.T) {
	s := NewServer(Conf{}, func(string) (int64, error) { return 0, nil })
	a := NewClient("conn-a", 1, nil, 4)
	s.reg.Register(a)

	s.handleControl(a, Unknown{Type: "dance"})
	expectEmpty(t, a)
	if got := s.reg.NumConns(); got != 1 {
		t.Fatalf("unknown frame cost the connection: NumConns = %d", got)
	}
}
