package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"google.golang.org/grpc/status"

	"github.com/oggyb/connecta/internal/api"
	"github.com/oggyb/connecta/internal/app"
	"github.com/oggyb/connecta/internal/realtime"
	"github.com/oggyb/connecta/internal/service/chat"
	"github.com/oggyb/connecta/internal/utils/validate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 64 << 10
	requestTimeout = 10 * time.Second
)

// WSHandler upgrades authenticated requests and bridges each socket to a
// relay connection.
type WSHandler struct {
	appCtx   *app.AppContext
	chat     *chat.Service
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(appCtx *app.AppContext, chatSvc *chat.Service) *WSHandler {
	return &WSHandler{
		appCtx: appCtx,
		chat:   chatSvc,
		log:    appCtx.Logger.With("component", "ws"),
		upgrader: websocket.Upgrader{
			// the gateway in front of us has already checked origin and identity
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /ws. The caller's user id is set by the gateway in the
// X-User-ID header, or passed as ?user_id= by browsers that cannot set
// headers on a websocket request.
func (h *WSHandler) Serve(c *gin.Context) {
	userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
	if userID == "" {
		userID = strings.TrimSpace(c.Query("user_id"))
	}
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user id"})
		return
	}

	// mark online before the handshake completes so a client that sees the
	// upgrade also sees itself online
	if _, err := h.appCtx.Presence.Connected(c.Request.Context(), userID); err != nil {
		h.log.Warn("mark online failed", "user", userID, "err", err)
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("upgrade failed", "user", userID, "err", err)
		h.markOffline(userID)
		return
	}

	client := &wsClient{
		h:    h,
		ws:   ws,
		conn: h.appCtx.Relay.Connect(userID),
	}
	h.log.Debug("client connected", "user", userID, "conn", client.conn.ID)

	go client.writePump()
	client.readPump()
}

func (h *WSHandler) markOffline(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if _, err := h.appCtx.Presence.Disconnected(ctx, userID); err != nil {
		h.log.Warn("mark offline failed", "user", userID, "err", err)
	}
}

// wsClient is one socket. readPump is the only reader and writePump the only
// writer; replies go through the relay queue like everything else.
type wsClient struct {
	h    *WSHandler
	ws   *websocket.Conn
	conn *realtime.Conn
}

func (c *wsClient) readPump() {
	defer func() {
		c.h.appCtx.Relay.Disconnect(c.conn)
		c.h.markOffline(c.conn.UserID)
		_ = c.ws.Close()
		c.h.log.Debug("client disconnected", "user", c.conn.UserID, "conn", c.conn.ID)
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var evt realtime.Event
		if err := c.ws.ReadJSON(&evt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.h.log.Warn("read error", "conn", c.conn.ID, "err", err)
			}
			return
		}
		c.handleEvent(&evt)
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case evt, ok := <-c.conn.Outbox():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// relay closed the connection
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// connection ids stay inside the relay and the bus
			evt.Origin = ""
			if err := c.ws.WriteJSON(evt); err != nil {
				c.h.log.Warn("write error", "conn", c.conn.ID, "err", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleEvent routes an incoming client event.
func (c *wsClient) handleEvent(evt *realtime.Event) {
	relay := c.h.appCtx.Relay

	switch evt.Type {
	case realtime.EventJoinConversation, realtime.EventLeaveConversation:
		var p realtime.ConversationPayload
		if !c.decode(evt, &p) {
			return
		}
		conv := firstNonEmpty(p.ConversationID, evt.ConversationID)
		if !validate.ConversationID(conv) {
			c.sendError("InvalidArgument", "invalid conversation id")
			return
		}
		if evt.Type == realtime.EventLeaveConversation {
			relay.Leave(c.conn, conv)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := c.h.chat.CanJoin(ctx, conv, c.conn.UserID); err != nil {
			c.sendStatus(err)
			return
		}
		relay.Join(c.conn, conv)

	case realtime.EventSendMessage:
		var p realtime.SendMessagePayload
		if !c.decode(evt, &p) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := c.h.chat.SendMessage(ctx, &api.SendMessageRequest{
			ConversationID: firstNonEmpty(p.ConversationID, evt.ConversationID),
			SenderID:       c.conn.UserID,
			ReceiverID:     p.ReceiverID,
			Text:           p.Text,
			Type:           p.Type,
			MediaURL:       p.MediaURL,
			Origin:         c.conn.ID,
		})
		if err != nil {
			c.sendStatus(err)
		}

	case realtime.EventTyping:
		var p realtime.TypingPayload
		if !c.decode(evt, &p) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := c.h.chat.SetTyping(ctx, &api.SetTypingRequest{
			ConversationID: firstNonEmpty(p.ConversationID, evt.ConversationID),
			UserID:         c.conn.UserID,
			IsTyping:       p.IsTyping,
			Origin:         c.conn.ID,
		})
		if err != nil {
			c.sendStatus(err)
		}

	case realtime.EventPing:
		pong, _ := realtime.NewEvent(realtime.EventPong, "", nil)
		relay.Send(c.conn, pong)

	default:
		c.sendError("UnknownEvent", "unknown event type: "+evt.Type)
	}
}

func (c *wsClient) decode(evt *realtime.Event, v any) bool {
	if len(evt.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(evt.Payload, v); err != nil {
		c.sendError("InvalidPayload", "invalid "+evt.Type+" payload")
		return false
	}
	return true
}

func (c *wsClient) sendStatus(err error) {
	st := status.Convert(err)
	c.sendError(st.Code().String(), st.Message())
}

func (c *wsClient) sendError(code, message string) {
	evt, err := realtime.NewEvent(realtime.EventError, "", realtime.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	c.h.appCtx.Relay.Send(c.conn, evt)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
