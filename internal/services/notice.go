package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/gatherly/internal/models"
	"github.com/thereayou/gatherly/internal/websocket"
	"go.uber.org/zap"
)

type NoticeAction string

const (
	ActionCreate      NoticeAction = "create"
	ActionParticipate NoticeAction = "participate"
)

// NoticeView is the broadcast form of a notice.
type NoticeView struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     uuid.UUID `json:"user_id"`
	UserName   string    `json:"user_name"`
	EventID    uuid.UUID `json:"event_id"`
	EventTitle string    `json:"event_title"`
}

// NoticeService records event activity and fans it out to every open
// connection, registered or not.
type NoticeService struct {
	users   UserStore
	events  EventStore
	notices NoticeStore
	hub     *websocket.Hub
	window  time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewNoticeService(users UserStore, events EventStore, notices NoticeStore, hub *websocket.Hub, window time.Duration, log *zap.Logger) *NoticeService {
	return &NoticeService{
		users:   users,
		events:  events,
		notices: notices,
		hub:     hub,
		window:  window,
		now:     time.Now,
		log:     log.Named("notices"),
	}
}

// Announce resolves the user and event, then records and broadcasts the notice.
func (s *NoticeService) Announce(ctx context.Context, userID, eventID uuid.UUID, action NoticeAction) (*models.EventNotice, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, storeErr("user", err)
	}
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, storeErr("event", err)
	}
	return s.AnnounceFor(ctx, user, event, action)
}

// AnnounceFor records and broadcasts a notice for records the caller already holds.
func (s *NoticeService) AnnounceFor(ctx context.Context, user *models.User, event *models.Event, action NoticeAction) (*models.EventNotice, error) {
	text, err := noticeText(user, event, action)
	if err != nil {
		return nil, err
	}

	notice := &models.EventNotice{
		UserID:    user.ID,
		EventID:   event.ID,
		Text:      text,
		Timestamp: s.now(),
	}
	if err := s.notices.SaveNotice(ctx, notice); err != nil {
		s.log.Error("save notice", zap.Stringer("event", event.ID), zap.Error(err))
		return nil, storeErr("save notice", err)
	}

	n := s.hub.Broadcast(websocket.TypeEventNotice, NoticeView{
		ID:         notice.ID,
		Text:       notice.Text,
		Timestamp:  notice.Timestamp,
		UserID:     user.ID,
		UserName:   user.Name,
		EventID:    event.ID,
		EventTitle: event.Title,
	})
	s.log.Debug("notice broadcast", zap.Stringer("notice", notice.ID), zap.Int("connections", n))

	return notice, nil
}

// ListRecent returns notices from the visibility window, newest first.
func (s *NoticeService) ListRecent(ctx context.Context) ([]models.EventNotice, error) {
	notices, err := s.notices.ListNoticesSince(ctx, s.now().Add(-s.window))
	if err != nil {
		return nil, storeErr("recent notices", err)
	}
	return notices, nil
}

func noticeText(user *models.User, event *models.Event, action NoticeAction) (string, error) {
	switch action {
	case ActionCreate:
		return fmt.Sprintf("%s created the event %q", user.Name, event.Title), nil
	case ActionParticipate:
		return fmt.Sprintf("%s participated in the event %q", user.Name, event.Title), nil
	default:
		return "", invalid("action type %q, must be 'create' or 'participate'", action)
	}
}
