package services

import "github.com/google/uuid"

// Event kinds emitted over the realtime channel.
const (
	EventNewMessage        = "new_message"
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventNewComment        = "new_comment"
)

// Broker fans an event out to every connection currently subscribed to a
// channel. Delivery is best-effort and must never block or fail the
// caller; the single in-process implementation lives in the websocket
// package. Constructed once at startup and passed in explicitly so tests
// can substitute a recording double.
type Broker interface {
	Publish(channel, event string, payload interface{})
}

// Channel name prefixes. Exported so the websocket layer parses the
// same names this package publishes to; there is exactly one place the
// naming scheme lives.
const (
	ChatChannelPrefix = "chat:"
	PostChannelPrefix = "post:"
)

// ChatChannel is the pub/sub key for a conversation's events.
func ChatChannel(conversationID uuid.UUID) string {
	return ChatChannelPrefix + conversationID.String()
}

// PostChannel scopes comment events to viewers of one post instead of
// broadcasting them to every connected client.
func PostChannel(postID uuid.UUID) string {
	return PostChannelPrefix + postID.String()
}

// NopBroker discards all events. Used where realtime delivery is
// intentionally absent (migrations, offline tooling).
type NopBroker struct{}

func (NopBroker) Publish(channel, event string, payload interface{}) {}
