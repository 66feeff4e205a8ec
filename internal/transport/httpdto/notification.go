package httpdto

// MarkReadRequest marks the listed notifications read, or all of them
// when the list is empty.
type MarkReadRequest struct {
	NotificationIDs []string `json:"notificationIds"`
}
