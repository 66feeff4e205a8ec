package httpdto

// FriendActionRequest addresses a friend-request operation by the other
// user rather than by request ID.
type FriendActionRequest struct {
	UserID  string `json:"userId" binding:"required,uuid"`
	Message string `json:"message,omitempty"`
}
