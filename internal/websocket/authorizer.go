package websocket

import (
	"context"
	"strings"

	"openbook-server/internal/repository"
	"openbook-server/internal/services"

	"github.com/google/uuid"
)

// ChannelAuthorizer decides whether a user may join a realtime channel.
// Conversation rooms are restricted to the two participants; post rooms
// are open to any authenticated user since posts are publicly visible.
type ChannelAuthorizer struct {
	chatRepo repository.ChatRepository
}

func NewChannelAuthorizer(chatRepo repository.ChatRepository) *ChannelAuthorizer {
	return &ChannelAuthorizer{chatRepo: chatRepo}
}

func (a *ChannelAuthorizer) CanSubscribe(ctx context.Context, userID string, channel string) (bool, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return false, nil
	}

	if strings.HasPrefix(channel, services.ChatChannelPrefix) {
		convID, err := uuid.Parse(strings.TrimPrefix(channel, services.ChatChannelPrefix))
		if err != nil {
			return false, nil
		}
		conv, err := a.chatRepo.GetConversationByID(ctx, convID)
		if err != nil {
			return false, nil
		}
		return conv.HasParticipant(userUUID), nil
	}

	if strings.HasPrefix(channel, services.PostChannelPrefix) {
		if _, err := uuid.Parse(strings.TrimPrefix(channel, services.PostChannelPrefix)); err != nil {
			return false, nil
		}
		return true, nil
	}

	return false, nil
}
