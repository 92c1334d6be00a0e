package bus

import (
	"encoding/json"

	"GroupChatAI/logger"
	"GroupChatAI/service/chat"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

// Subject every gateway node subscribes to. No queue group: relay is a
// fan-out, every node must see every event and deliver to its own
// connections. Best-effort by design, so core NATS without JetStream.
const relaySubject = "chat.relay"

const (
	scopeUser  = "user"
	scopeGroup = "group"
)

type envelope struct {
	Node    string          `json:"node"`
	Scope   string          `json:"scope"`
	GroupID int64           `json:"group_id,omitempty"`
	UserID  int64           `json:"user_id,omitempty"`
	Exclude int64           `json:"exclude,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Bus relays serialized frames between gateway nodes over NATS. It plugs
// into the dispatcher as its Relay and feeds inbound envelopes back into
// local-only delivery.
type Bus struct {
	nc     *nats.Conn
	nodeID string
	disp   *chat.Dispatcher
	sub    *nats.Subscription
}

// Connect dials NATS, subscribes, and wires the bus into the dispatcher.
func Connect(url, nodeID string, disp *chat.Dispatcher) (*Bus, error) {
	nc, err := nats.Connect(url, nats.Name("groupchat-gw-"+nodeID))
	if err != nil {
		return nil, errors.Wrap(err, "nats connect")
	}
	b := &Bus{nc: nc, nodeID: nodeID, disp: disp}
	sub, err := nc.Subscribe(relaySubject, b.onRelay)
	if err != nil {
		nc.Close()
		return nil, errors.Wrap(err, "nats subscribe")
	}
	b.sub = sub
	disp.SetRelay(b)
	logger.Infof("[bus] connected to %s as node=%s", url, nodeID)
	return b, nil
}

func (b *Bus) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if b.nc != nil {
		_ = b.nc.Drain()
	}
}

// RelayUser implements chat.Relay.
func (b *Bus) RelayUser(userID int64, payload []byte) {
	b.publish(envelope{Node: b.nodeID, Scope: scopeUser, UserID: userID, Payload: payload})
}

// RelayGroup implements chat.Relay.
func (b *Bus) RelayGroup(groupID, excludeUser int64, payload []byte) {
	b.publish(envelope{Node: b.nodeID, Scope: scopeGroup, GroupID: groupID, Exclude: excludeUser, Payload: payload})
}

func (b *Bus) publish(env envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		logger.Errorf("[bus] marshal envelope: %v", err)
		return
	}
	if err := b.nc.Publish(relaySubject, data); err != nil {
		// Relay is an enhancement over local delivery; never raise.
		logger.Warnf("[bus] publish failed: %v", err)
	}
}

func (b *Bus) onRelay(m *nats.Msg) {
	var env envelope
	if err := json.Unmarshal(m.Data, &env); err != nil {
		logger.Warnf("[bus] bad envelope: %v", err)
		return
	}
	if env.Node == b.nodeID {
		// our own publish echoed back
		return
	}
	switch env.Scope {
	case scopeUser:
		b.disp.DeliverToUserRaw(env.UserID, env.Payload)
	case scopeGroup:
		b.disp.DeliverToGroupRaw(env.GroupID, env.Payload, env.Exclude)
	default:
		logger.Debugf("[bus] ignoring envelope scope=%q", env.Scope)
	}
}
