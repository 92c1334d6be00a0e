package chat

import (
	"encoding/json"

	"GroupChatAI/logger"
)

// Relay forwards a serialized frame to other gateway nodes so their local
// dispatchers can reach connections this node doesn't hold. Optional.
type Relay interface {
	RelayUser(userID int64, payload []byte)
	RelayGroup(groupID, excludeUser int64, payload []byte)
}

// Dispatcher fans frames out to live connections. Delivery is best-effort:
// per-connection failures are logged, never raised, and a connection that
// cannot keep up is pruned from the registry right in the send path. The
// durable write has already committed by the time anything is dispatched,
// so nothing here can roll application state back.
type Dispatcher struct {
	reg    *Registry
	groups *Groups
	relay  Relay

	// userGone runs after the user's last connection is pruned here, so
	// the shared presence mirror stays in step with the read-loop teardown.
	userGone func(userID int64)
}

func NewDispatcher(reg *Registry, groups *Groups) *Dispatcher {
	return &Dispatcher{reg: reg, groups: groups}
}

// SetRelay installs the cross-node relay; call before serving traffic.
func (d *Dispatcher) SetRelay(r Relay) { d.relay = r }

// SendToUser serializes the frame once and delivers it to every live
// connection of the user, locally and via the relay.
func (d *Dispatcher) SendToUser(userID int64, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Errorf("[dispatch] marshal frame for user=%d: %v", userID, err)
		return
	}
	d.DeliverToUserRaw(userID, payload)
	if d.relay != nil {
		d.relay.RelayUser(userID, payload)
	}
}

// SendToGroup delivers to every subscriber of the group except
// excludeUser (0 excludes nobody). Cross-subscriber order is unspecified.
func (d *Dispatcher) SendToGroup(groupID int64, frame any, excludeUser int64) {
	payload, err := json.Marshal(frame)
	if err != nil {
		logger.Errorf("[dispatch] marshal frame for group=%d: %v", groupID, err)
		return
	}
	d.DeliverToGroupRaw(groupID, payload, excludeUser)
	if d.relay != nil {
		d.relay.RelayGroup(groupID, excludeUser, payload)
	}
}

// DeliverToUserRaw hands an already-serialized frame to the user's local
// connections only. The relay calls this for frames arriving from other
// nodes; re-relaying them would loop.
func (d *Dispatcher) DeliverToUserRaw(userID int64, payload []byte) {
	for _, c := range d.reg.ConnectionsOf(userID) {
		if c.enqueue(payload) {
			continue
		}
		// Dead or saturated: drop it now rather than waiting for the
		// read loop to notice.
		logger.Warnf("[dispatch] dropping conn=%s user=%d (send queue full or closed)", c.ConnID, userID)
		d.drop(c)
	}
}

// DeliverToGroupRaw is the local-only group fan-out.
func (d *Dispatcher) DeliverToGroupRaw(groupID int64, payload []byte, excludeUser int64) {
	for _, uid := range d.groups.SubscribersOf(groupID) {
		if excludeUser != 0 && uid == excludeUser {
			continue
		}
		d.DeliverToUserRaw(uid, payload)
	}
}

func (d *Dispatcher) drop(c *Client) {
	if removed, last := d.reg.Unregister(c); removed && last {
		d.groups.DropUser(c.UserID)
		if d.userGone != nil {
			d.userGone(c.UserID)
		}
	}
	c.Close()
}
