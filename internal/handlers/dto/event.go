package dto

type CreateEventRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required"`
	Category    string `json:"category"`
	Capacity    int    `json:"capacity"`
}

// UpdateEventRequest changes only the fields present in the body.
type UpdateEventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Category    *string `json:"category"`
	Capacity    *int    `json:"capacity"`
	Status      *string `json:"status"`
}

type JoinEventRequest struct {
	Interests []string `json:"interests"`
}

type CreateNoticeRequest struct {
	EventID    string `json:"event_id" binding:"required"`
	ActionType string `json:"action_type" binding:"required"`
}
