package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/gatherly/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var eventCategories = map[string]bool{
	"Tech": true, "Sports": true, "Music": true, "Business": true, "Other": true,
}

type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	Date        string
	Time        string
	Category    string
	Capacity    int
}

// UpdateEventInput carries the fields to change; nil fields are kept.
type UpdateEventInput struct {
	Title       *string
	Description *string
	Location    *string
	Date        *string
	Time        *string
	Category    *string
	Capacity    *int
	Status      *string
}

var eventStatuses = map[string]bool{
	models.EventStatusUpcoming:  true,
	models.EventStatusCompleted: true,
	models.EventStatusCancelled: true,
}

// EventService handles event mutations and announces them as notices.
type EventService struct {
	users   UserStore
	events  EventStore
	notices *NoticeService
	loc     *time.Location
	now     func() time.Time
	log     *zap.Logger
}

func NewEventService(users UserStore, events EventStore, notices *NoticeService, loc *time.Location, log *zap.Logger) *EventService {
	if loc == nil {
		loc = time.Local
	}
	return &EventService{
		users:   users,
		events:  events,
		notices: notices,
		loc:     loc,
		now:     time.Now,
		log:     log.Named("events"),
	}
}

func (s *EventService) Create(ctx context.Context, organizerID uuid.UUID, in CreateEventInput) (*models.Event, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Location) == "" {
		return nil, invalid("title and location are required")
	}

	date, err := ParseEventDate(in.Date)
	if err != nil {
		return nil, err
	}
	clock, err := NormalizeEventClock(in.Time)
	if err != nil {
		return nil, err
	}

	category := in.Category
	if category == "" {
		category = "Other"
	}
	if !eventCategories[category] {
		return nil, invalid("category %q", category)
	}

	capacity := in.Capacity
	if capacity <= 0 {
		capacity = 100
	}

	organizer, err := s.users.GetUser(ctx, organizerID)
	if err != nil {
		return nil, storeErr("organizer", err)
	}

	event := &models.Event{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Location:    strings.TrimSpace(in.Location),
		Date:        date,
		Time:        clock,
		Category:    category,
		Capacity:    capacity,
		Status:      models.EventStatusUpcoming,
		OrganizerID: organizerID,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, storeErr("create event", err)
	}

	// The event exists either way; a lost notice is only logged.
	if _, err := s.notices.AnnounceFor(ctx, organizer, event, ActionCreate); err != nil {
		s.log.Warn("announce created event", zap.Stringer("event", event.ID), zap.Error(err))
	}

	return event, nil
}

func (s *EventService) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, storeErr("event", err)
	}
	return event, nil
}

// List returns events whose start is today or later.
func (s *EventService) List(ctx context.Context) ([]models.Event, error) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	events, err := s.events.ListEvents(ctx, from)
	if err != nil {
		return nil, storeErr("list events", err)
	}

	active := make([]models.Event, 0, len(events))
	for _, event := range events {
		instant, err := EventInstant(&event, s.loc)
		if err != nil || instant.Before(today) {
			continue
		}
		active = append(active, event)
	}
	return active, nil
}

// Join registers userID for the event. The duplicate and capacity checks run
// inside the store transaction that inserts the participant.
func (s *EventService) Join(ctx context.Context, eventID, userID uuid.UUID, interests []string) (*models.Event, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, storeErr("user", err)
	}

	participant := models.EventParticipant{
		EventID:   eventID,
		UserID:    userID,
		Interests: joinInterests(interests),
		JoinedAt:  s.now(),
	}
	event, err := s.events.JoinEvent(ctx, &participant, func(event *models.Event) error {
		for _, p := range event.Participants {
			if p.UserID == userID {
				return ErrAlreadyJoined
			}
		}
		if len(event.Participants) >= event.Capacity {
			return ErrEventFull
		}
		return nil
	})
	if err != nil {
		return nil, guardedErr("join event", err)
	}

	if _, err := s.notices.AnnounceFor(ctx, user, event, ActionParticipate); err != nil {
		s.log.Warn("announce participation", zap.Stringer("event", event.ID), zap.Error(err))
	}

	return event, nil
}

// Update changes the event's details. Only the organizer may do so.
func (s *EventService) Update(ctx context.Context, eventID, userID uuid.UUID, in UpdateEventInput) (*models.Event, error) {
	event, err := s.events.UpdateEvent(ctx, eventID, func(event *models.Event) error {
		if event.OrganizerID != userID {
			return ErrForbidden
		}
		return applyEventUpdate(event, in)
	})
	if err != nil {
		return nil, guardedErr("update event", err)
	}

	s.log.Info("event updated", zap.Stringer("event", event.ID), zap.Stringer("organizer", userID))
	return event, nil
}

// Delete removes the event and its participant list. Only the organizer may
// do so.
func (s *EventService) Delete(ctx context.Context, eventID, userID uuid.UUID) error {
	err := s.events.DeleteEvent(ctx, eventID, func(event *models.Event) error {
		if event.OrganizerID != userID {
			return ErrForbidden
		}
		return nil
	})
	if err != nil {
		return guardedErr("delete event", err)
	}

	s.log.Info("event deleted", zap.Stringer("event", eventID), zap.Stringer("organizer", userID))
	return nil
}

func applyEventUpdate(event *models.Event, in UpdateEventInput) error {
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return invalid("title is required")
		}
		event.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		event.Description = *in.Description
	}
	if in.Location != nil {
		if strings.TrimSpace(*in.Location) == "" {
			return invalid("location is required")
		}
		event.Location = strings.TrimSpace(*in.Location)
	}
	if in.Date != nil {
		date, err := ParseEventDate(*in.Date)
		if err != nil {
			return err
		}
		event.Date = date
	}
	if in.Time != nil {
		clock, err := NormalizeEventClock(*in.Time)
		if err != nil {
			return err
		}
		event.Time = clock
	}
	if in.Category != nil {
		if !eventCategories[*in.Category] {
			return invalid("category %q", *in.Category)
		}
		event.Category = *in.Category
	}
	if in.Capacity != nil {
		if *in.Capacity <= 0 || *in.Capacity < len(event.Participants) {
			return invalid("capacity %d with %d participants", *in.Capacity, len(event.Participants))
		}
		event.Capacity = *in.Capacity
	}
	if in.Status != nil {
		if !eventStatuses[*in.Status] {
			return invalid("status %q", *in.Status)
		}
		event.Status = *in.Status
	}
	return nil
}

// guardedErr passes through the domain errors raised by a guarded store
// callback and classifies the rest. A duplicate participant key means a
// concurrent join by the same user won.
func guardedErr(what string, err error) error {
	for _, domain := range []error{ErrAlreadyJoined, ErrEventFull, ErrForbidden, ErrInvalidArgument} {
		if errors.Is(err, domain) {
			return err
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyJoined
	}
	return storeErr(what, err)
}

func (s *EventService) Withdraw(ctx context.Context, eventID, userID uuid.UUID) (*models.Event, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, storeErr("event", err)
	}

	idx := -1
	for i, p := range event.Participants {
		if p.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotParticipant
	}

	if err := s.events.RemoveParticipant(ctx, eventID, userID); err != nil {
		return nil, storeErr("withdraw", err)
	}
	event.Participants = append(event.Participants[:idx], event.Participants[idx+1:]...)

	return event, nil
}

// ParticipantEvents lists every event userID has joined.
func (s *EventService) ParticipantEvents(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	events, err := s.events.GetParticipantEvents(ctx, userID)
	if err != nil {
		return nil, storeErr("participant events", err)
	}
	return events, nil
}

func joinInterests(interests []string) string {
	cleaned := make([]string, 0, len(interests))
	for _, i := range interests {
		if i = strings.TrimSpace(i); i != "" {
			cleaned = append(cleaned, i)
		}
	}
	return strings.Join(cleaned, ",")
}
