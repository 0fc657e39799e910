package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/gatherly/internal/models"
	"go.uber.org/zap"
)

type CountdownStatus string

const (
	StatusNone         CountdownStatus = "none"
	StatusInProgress   CountdownStatus = "in_progress"
	StatusStartingSoon CountdownStatus = "starting_soon"
	StatusScheduled    CountdownStatus = "scheduled"
)

const startingSoonThreshold = 3600

// NearestEventView is derived on every request and never stored.
type NearestEventView struct {
	Event            *models.Event   `json:"event"`
	Status           CountdownStatus `json:"status"`
	SecondsRemaining int64           `json:"seconds_remaining"`
}

type CountdownConfig struct {
	Location *time.Location
	// InProgressWindow is how long after its start an event still counts
	// as the user's nearest one.
	InProgressWindow time.Duration
	// ReportScheduled pushes events more than an hour away as well.
	ReportScheduled bool
}

type CountdownService struct {
	events EventStore
	cfg    CountdownConfig
	now    func() time.Time
	log    *zap.Logger
}

func NewCountdownService(events EventStore, cfg CountdownConfig, log *zap.Logger) *CountdownService {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &CountdownService{
		events: events,
		cfg:    cfg,
		now:    time.Now,
		log:    log.Named("countdown"),
	}
}

// Evaluate classifies the nearest event userID participates in. Having no
// such event yields StatusNone, not an error.
func (s *CountdownService) Evaluate(ctx context.Context, userID uuid.UUID) (NearestEventView, error) {
	now := s.now()

	event, instant, err := s.nearest(ctx, userID, now)
	if err != nil {
		return NearestEventView{}, err
	}
	if event == nil {
		return NearestEventView{Status: StatusNone}, nil
	}

	delta := int64(instant.Sub(now) / time.Second)
	switch {
	case delta <= 0:
		return NearestEventView{Event: event, Status: StatusInProgress}, nil
	case delta <= startingSoonThreshold:
		return NearestEventView{Event: event, Status: StatusStartingSoon, SecondsRemaining: delta}, nil
	default:
		return NearestEventView{Event: event, Status: StatusScheduled, SecondsRemaining: delta}, nil
	}
}

// ShouldPush reports whether a view is worth sending to the connection.
func (s *CountdownService) ShouldPush(view NearestEventView) bool {
	return view.Status != StatusScheduled || s.cfg.ReportScheduled
}

// Nearest returns the event Evaluate would pick, or ErrNotFound.
func (s *CountdownService) Nearest(ctx context.Context, userID uuid.UUID) (*models.Event, error) {
	event, _, err := s.nearest(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrNotFound
	}
	return event, nil
}

// nearest keeps events that have not started yet or started within the
// in-progress window, and picks the earliest.
func (s *CountdownService) nearest(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Event, time.Time, error) {
	events, err := s.events.GetParticipantEvents(ctx, userID)
	if err != nil {
		return nil, time.Time{}, storeErr("participant events", err)
	}

	cutoff := now.Add(-s.cfg.InProgressWindow)

	var (
		best        *models.Event
		bestInstant time.Time
	)
	for i := range events {
		event := &events[i]
		if event.Status == models.EventStatusCancelled {
			continue
		}

		instant, err := EventInstant(event, s.cfg.Location)
		if err != nil {
			s.log.Warn("unparseable event time", zap.Stringer("event", event.ID), zap.String("time", event.Time))
			continue
		}
		if instant.Before(cutoff) {
			continue
		}
		if best == nil || instant.Before(bestInstant) {
			best, bestInstant = event, instant
		}
	}

	return best, bestInstant, nil
}
