package httpdto

// SendChatRequest starts the chat handshake with another user.
type SendChatRequest struct {
	ReceiverID string `json:"receiverId" binding:"required,uuid"`
	Message    string `json:"message"`
}

// RespondRequest accepts or declines a pending request.
type RespondRequest struct {
	Action string `json:"action" binding:"required"`
}

// FindOrCreateRequest opens (or returns) the conversation with a user.
type FindOrCreateRequest struct {
	UserID string `json:"userId" binding:"required,uuid"`
}

// SendMessageRequest posts a message into a conversation.
type SendMessageRequest struct {
	Content     string `json:"content" binding:"required"`
	MessageType string `json:"messageType"`
	ReplyTo     string `json:"replyTo"`
}
