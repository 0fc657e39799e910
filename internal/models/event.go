package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EventStatusUpcoming  = "Upcoming"
	EventStatusCompleted = "Completed"
	EventStatusCancelled = "Cancelled"
)

type Event struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `gorm:"not null" json:"location"`
	// Date holds the calendar day only; Time is "hh:mm AM" / "hh:mm PM".
	Date        time.Time `gorm:"not null" json:"date"`
	Time        string    `gorm:"not null" json:"time"`
	Category    string    `gorm:"default:'Other'" json:"category"`
	Capacity    int       `gorm:"default:100" json:"capacity"`
	Status      string    `gorm:"default:'Upcoming'" json:"status"`
	OrganizerID uuid.UUID `gorm:"type:uuid;not null" json:"organizer_id"`
	CreatedAt   time.Time `json:"created_at"`

	Participants []EventParticipant `gorm:"foreignKey:EventID" json:"participants,omitempty"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type EventParticipant struct {
	EventID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"event_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	Interests string    `json:"interests,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}
