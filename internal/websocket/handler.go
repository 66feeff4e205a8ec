package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"openbook-server/internal/redis"
	"openbook-server/internal/services"
	"openbook-server/internal/transport/httpdto"
	"openbook-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// clientFrame is the inbound control frame sent by browsers.
type clientFrame struct {
	Type   string `json:"type"`
	ChatID string `json:"chatId,omitempty"`
	PostID string `json:"postId,omitempty"`
}

// typingPayload is fanned out to a conversation room when a participant
// starts or stops typing.
type typingPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type Handler struct {
	auth       *services.AuthService
	hub        *Hub
	authorizer *ChannelAuthorizer
	chats      *services.ChatService
	presence   *redis.PresenceStore
	logger     *logger.Logger
}

func NewHandler(
	auth *services.AuthService,
	hub *Hub,
	authorizer *ChannelAuthorizer,
	chats *services.ChatService,
	presence *redis.PresenceStore,
	log *logger.Logger,
) *Handler {
	return &Handler{
		auth:       auth,
		hub:        hub,
		authorizer: authorizer,
		chats:      chats,
		presence:   presence,
		logger:     log,
	}
}

// Connect upgrades the request to a WebSocket and runs the read loop
// until the peer goes away. Authentication uses a token query parameter
// because browsers cannot set headers on WebSocket upgrades.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	claims, err := h.auth.ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	userID := claims.UserID
	client := NewClient(conn, userID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	if h.presence != nil {
		if err := h.presence.SetOnline(ctx, userID, client.ID); err != nil {
			h.logger.Errorf("presence online failed: user=%s err=%v", userID, err)
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		if h.presence != nil {
			if err := h.presence.Heartbeat(ctx, userID); err != nil {
				h.logger.Errorf("presence heartbeat failed: user=%s err=%v", userID, err)
			}
		}
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		h.handleFrame(ctx, client, data)
	}

	h.hub.Unregister(client)
	if h.presence != nil {
		if err := h.presence.SetOffline(context.Background(), userID, client.ID); err != nil {
			h.logger.Errorf("presence offline failed: user=%s err=%v", userID, err)
		}
	}
}

func (h *Handler) handleFrame(ctx context.Context, client *Client, data []byte) {
	var frame clientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}

	switch frame.Type {
	case "join_chat":
		h.joinChat(ctx, client, frame.ChatID)
	case "leave_chat":
		h.hub.Unsubscribe(client, services.ChatChannelPrefix+frame.ChatID)
	case "typing":
		h.publishTyping(client, frame.ChatID, services.EventUserTyping)
	case "stop_typing":
		h.publishTyping(client, frame.ChatID, services.EventUserStoppedTyping)
	case "join_post":
		h.joinPost(ctx, client, frame.PostID)
	case "leave_post":
		h.hub.Unsubscribe(client, services.PostChannelPrefix+frame.PostID)
	}
}

func (h *Handler) joinChat(ctx context.Context, client *Client, chatID string) {
	channel := services.ChatChannelPrefix + chatID
	ok, err := h.authorizer.CanSubscribe(ctx, client.UserID, channel)
	if err != nil || !ok {
		return
	}
	h.hub.Subscribe(client, channel)

	// Joining the room means the user can now see inbound messages, so
	// move their pending ones from sent to delivered.
	convID, err := uuid.Parse(chatID)
	if err != nil {
		return
	}
	userUUID, err := uuid.Parse(client.UserID)
	if err != nil {
		return
	}
	if err := h.chats.MarkDelivered(ctx, convID, userUUID); err != nil {
		h.logger.Errorf("mark delivered failed: chat=%s user=%s err=%v", chatID, client.UserID, err)
	}
}

func (h *Handler) joinPost(ctx context.Context, client *Client, postID string) {
	channel := services.PostChannelPrefix + postID
	ok, err := h.authorizer.CanSubscribe(ctx, client.UserID, channel)
	if err != nil || !ok {
		return
	}
	h.hub.Subscribe(client, channel)
}

// publishTyping relays typing state to the conversation room. Only
// clients already in the room may emit, which doubles as the
// authorization check.
func (h *Handler) publishTyping(client *Client, chatID, event string) {
	channel := services.ChatChannelPrefix + chatID
	if !client.IsSubscribed(channel) {
		return
	}
	h.hub.Publish(channel, event, typingPayload{ChatID: chatID, UserID: client.UserID})
}
