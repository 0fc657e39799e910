package dto

// SendMessageRequest is used by both the REST endpoint and the
// send_message websocket intent.
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required"`
	Body       string `json:"body" binding:"required"`
}

type JoinPayload struct {
	UserID string `json:"user_id"`
}

type MarkReadPayload struct {
	MessageID string `json:"message_id"`
}
