package chat

import (
	"encoding/json"
	"testing"
)

func newDispatcherUnderTest() (*Dispatcher, *Registry, *Groups) {
	reg := NewRegistry()
	groups := NewGroups()
	return NewDispatcher(reg, groups), reg, groups
}

func recv(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload := <-c.Send:
		return payload
	default:
		t.Fatalf("conn %s: no frame queued", c.ConnID)
		return nil
	}
}

func expectEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("conn %s: unexpected frame %s", c.ConnID, payload)
	default:
	}
}

func TestSendToUserReachesEveryConnection(t *testing.T) {
	d, reg, _ := newDispatcherUnderTest()
	c1 := NewClient("conn-1", 7, nil, 4)
	c2 := NewClient("conn-2", 7, nil, 4)
	reg.Register(c1)
	reg.Register(c2)

	d.SendToUser(7, BuildConnectionConfirmed(7))

	for _, c := range []*Client{c1, c2} {
		var got ConnectionConfirmedFrame
		if err := json.Unmarshal(recv(t, c), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != TypeConnectionConfirmed || got.UserID != 7 {
			t.Fatalf("conn %s got %+v", c.ConnID, got)
		}
	}
}

func TestSendToGroupExcludesSender(t *testing.T) {
	d, reg, groups := newDispatcherUnderTest()
	alice := NewClient("conn-a", 1, nil, 4)
	bob := NewClient("conn-b", 2, nil, 4)
	carol := NewClient("conn-c", 3, nil, 4)
	for _, c := range []*Client{alice, bob, carol} {
		reg.Register(c)
		groups.Join(10, c.UserID)
	}

	d.SendToGroup(10, BuildUserTyping(1, 10), 1)

	expectEmpty(t, alice)
	for _, c := range []*Client{bob, carol} {
		var got UserTypingFrame
		if err := json.Unmarshal(recv(t, c), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Type != TypeUserTyping || got.UserID != 1 || got.GroupID != 10 {
			t.Fatalf("conn %s got %+v", c.ConnID, got)
		}
	}
}

func TestSendToGroupNoExclusion(t *testing.T) {
	d, reg, groups := newDispatcherUnderTest()
	alice := NewClient("conn-a", 1, nil, 4)
	bob := NewClient("conn-b", 2, nil, 4)
	for _, c := range []*Client{alice, bob} {
		reg.Register(c)
		groups.Join(10, c.UserID)
	}

	d.SendToGroup(10, NewMessageFrame{Type: TypeNewMessage, ID: 1, GroupID: 10}, 0)

	recv(t, alice)
	recv(t, bob)
}

func TestSendToGroupSkipsNonSubscribers(t *testing.T) {
	d, reg, groups := newDispatcherUnderTest()
	member := NewClient("conn-a", 1, nil, 4)
	bystander := NewClient("conn-b", 2, nil, 4)
	reg.Register(member)
	reg.Register(bystander)
	groups.Join(10, 1) // only user 1 subscribed

	d.SendToGroup(10, BuildUserTyping(1, 10), 0)

	recv(t, member)
	expectEmpty(t, bystander)
}

func TestSaturatedConnectionIsDropped(t *testing.T) {
	d, reg, groups := newDispatcherUnderTest()
	slow := NewClient("conn-slow", 1, nil, 1)
	reg.Register(slow)
	groups.Join(10, 1)

	d.SendToUser(1, BuildConnectionConfirmed(1)) // fills the queue
	d.SendToUser(1, BuildConnectionConfirmed(1)) // overflows: disconnect

	if got := reg.NumConns(); got != 0 {
		t.Fatalf("NumConns after overflow = %d, want 0", got)
	}
	// last connection gone, subscriptions must be gone too
	if subs := groups.SubscribersOf(10); len(subs) != 0 {
		t.Fatalf("SubscribersOf(10) = %v, want empty", subs)
	}
	select {
	case <-slow.done:
	default:
		t.Fatal("dropped client was not closed")
	}
}

func TestDropKeepsSubscriptionsWhileOtherConnsRemain(t *testing.T) {
	d, reg, groups := newDispatcherUnderTest()
	slow := NewClient("conn-slow", 1, nil, 1)
	healthy := NewClient("conn-ok", 1, nil, 8)
	reg.Register(slow)
	reg.Register(healthy)
	groups.Join(10, 1)

	d.SendToUser(1, BuildConnectionConfirmed(1))
	d.SendToUser(1, BuildConnectionConfirmed(1))

	if got := reg.NumConns(); got != 1 {
		t.Fatalf("NumConns = %d, want 1 (healthy conn survives)", got)
	}
	if subs := groups.SubscribersOf(10); len(subs) != 1 || subs[0] != 1 {
		t.Fatalf("SubscribersOf(10) = %v, want [1]", subs)
	}
}

type fakeRelay struct {
	userCalls  []int64
	groupCalls []int64
	excludes   []int64
	payloads   [][]byte
}

func (f *fakeRelay) RelayUser(userID int64, payload []byte) {
	f.userCalls = append(f.userCalls, userID)
	f.payloads = append(f.payloads, payload)
}

func (f *fakeRelay) RelayGroup(groupID, excludeUser int64, payload []byte) {
	f.groupCalls = append(f.groupCalls, groupID)
	f.excludes = append(f.excludes, excludeUser)
	f.payloads = append(f.payloads, payload)
}

func TestSendForwardsToRelay(t *testing.T) {
	d, _, groups := newDispatcherUnderTest()
	relay := &fakeRelay{}
	d.SetRelay(relay)
	groups.Join(10, 2)

	d.SendToUser(5, BuildConnectionConfirmed(5))
	d.SendToGroup(10, BuildUserTyping(1, 10), 1)

	if len(relay.userCalls) != 1 || relay.userCalls[0] != 5 {
		t.Fatalf("RelayUser calls = %v, want [5]", relay.userCalls)
	}
	if len(relay.groupCalls) != 1 || relay.groupCalls[0] != 10 || relay.excludes[0] != 1 {
		t.Fatalf("RelayGroup calls = %v excludes = %v", relay.groupCalls, relay.excludes)
	}
}

func TestRawDeliveryBypassesRelay(t *testing.T) {
	d, reg, groups := newDispatcherUnderTest()
	relay := &fakeRelay{}
	d.SetRelay(relay)

	c := NewClient("conn-1", 1, nil, 4)
	reg.Register(c)
	groups.Join(10, 1)

	payload := []byte(`{"type":"new_message","id":1}`)
	d.DeliverToUserRaw(1, payload)
	d.DeliverToGroupRaw(10, payload, 0)

	if len(relay.payloads) != 0 {
		t.Fatalf("raw delivery hit the relay %d times, want 0", len(relay.payloads))
	}
	recv(t, c)
	recv(t, c)
}
