package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"GroupChatAI/logger"
	"GroupChatAI/tools/ids"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// CloseUnauthorized is sent when token verification fails, so clients can
// tell a bad or expired token apart from a plain network drop.
const CloseUnauthorized = 4001

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS runs the whole connection lifecycle: upgrade, token check,
// registration, confirmation frame, read loop, teardown. Route it as
// GET /ws/:token.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[WS] upgrade failed: %v", err)
		return
	}

	// Verify before any registry mutation. A failed handshake must not
	// leak a half-registered connection.
	userID, err := s.verify(c.Param("token"))
	if err != nil {
		logger.Infof("[WS] auth failed: %v", err)
		msg := websocket.FormatCloseMessage(CloseUnauthorized, "unauthorized")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.conf.WriteWait))
		_ = ws.Close()
		return
	}

	client := NewClient(ids.GenerateString(), userID, ws, s.conf.SendQueueSize)
	s.reg.Register(client)
	s.mirrorOnline(userID)
	go client.writePump(s.conf.WriteWait, s.conf.PingPeriod)

	// Confirmation goes to this connection only, not every device.
	if payload, err := json.Marshal(BuildConnectionConfirmed(userID)); err == nil {
		client.enqueue(payload)
	}
	logger.Infof("[WS] user=%d connected conn=%s", userID, client.ConnID)

	s.readLoop(client)

	// Teardown: presence first, then subscriptions if this was the
	// user's last connection.
	if removed, last := s.reg.Unregister(client); removed && last {
		s.groups.DropUser(userID)
		s.mirrorOffline(userID)
	}
	client.Close()
	logger.Infof("[WS] user=%d disconnected conn=%s", userID, client.ConnID)
}

// readLoop blocks on the next inbound frame and dispatches it by type.
// Any transport error means disconnect; malformed frames just log.
func (s *Server) readLoop(client *Client) {
	ws := client.WS
	ws.SetReadLimit(s.conf.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(s.conf.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.conf.PongWait))
	})

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s: %v", client.ConnID, err)
			} else {
				logger.Infof("[WS] read error conn=%s: %v", client.ConnID, err)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		ctrl, err := ParseControl(data)
		if err != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Warnf("[WS] bad frame conn=%s err=%v sample=%q", client.ConnID, err, sample)
			continue
		}
		s.handleControl(client, ctrl)
	}
}

func (s *Server) handleControl(client *Client, ctrl Control) {
	switch f := ctrl.(type) {
	case JoinGroup:
		s.groups.Join(f.GroupID, client.UserID)
		logger.Debugf("[WS] user=%d joined group=%d", client.UserID, f.GroupID)
	case LeaveGroup:
		s.groups.Leave(f.GroupID, client.UserID)
		logger.Debugf("[WS] user=%d left group=%d", client.UserID, f.GroupID)
	case Typing:
		// Never echo typing back to the sender's own connections.
		s.disp.SendToGroup(f.GroupID, BuildUserTyping(client.UserID, f.GroupID), client.UserID)
	case StopTyping:
		s.disp.SendToGroup(f.GroupID, BuildUserStoppedTyping(client.UserID, f.GroupID), client.UserID)
	case Unknown:
		// Forward compatibility: skip, keep the connection.
		logger.Debugf("[WS] ignoring unknown frame type=%q user=%d", f.Type, client.UserID)
	}
}

func (s *Server) mirrorOnline(userID int64) {
	if s.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.presence.Online(ctx, userID, s.conf.PresenceTTL); err != nil {
		logger.Warnf("[WS] presence online user=%d: %v", userID, err)
	}
}

func (s *Server) mirrorOffline(userID int64) {
	if s.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.presence.Offline(ctx, userID); err != nil {
		logger.Warnf("[WS] presence offline user=%d: %v", userID, err)
	}
}
