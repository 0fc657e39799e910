package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/gatherly/internal/models"
)

// Stores return gorm.ErrRecordNotFound for missing records.

type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateLastSeen(ctx context.Context, id uuid.UUID) error
}

type MessageStore interface {
	SaveMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	MarkMessageRead(ctx context.Context, id uuid.UUID) (*models.Message, error)
	GetConversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error)
	GetChatList(ctx context.Context, userID uuid.UUID) ([]models.ChatSummary, error)
}

type EventStore interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListEvents(ctx context.Context, from time.Time) ([]models.Event, error)
	GetParticipantEvents(ctx context.Context, userID uuid.UUID) ([]models.Event, error)
	RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error

	// The guarded mutations run their callback on the row-locked event with
	// its participants loaded and write nothing if the callback fails.
	JoinEvent(ctx context.Context, participant *models.EventParticipant, admit func(*models.Event) error) (*models.Event, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, mutate func(*models.Event) error) (*models.Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID, authorize func(*models.Event) error) error
}

type NoticeStore interface {
	SaveNotice(ctx context.Context, notice *models.EventNotice) error
	ListNoticesSince(ctx context.Context, since time.Time) ([]models.EventNotice, error)
}
