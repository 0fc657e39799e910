package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thereayou/gatherly/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (d *Database) CreateEvent(ctx context.Context, event *models.Event) error {
	return d.db.WithContext(ctx).Create(event).Error
}

func (d *Database) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := d.db.WithContext(ctx).Preload("Participants").First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// ListEvents returns events dated on or after the given day, soonest first.
func (d *Database) ListEvents(ctx context.Context, from time.Time) ([]models.Event, error) {
	var events []models.Event

	err := d.db.WithContext(ctx).
		Where("date >= ?", from).
		Order("date ASC").
		Find(&events).Error

	return events, err
}

// GetParticipantEvents returns every event userID has joined.
func (d *Database) GetParticipantEvents(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	var events []models.Event

	err := d.db.WithContext(ctx).
		Joins("JOIN event_participants ep ON ep.event_id = events.id").
		Where("ep.user_id = ?", userID).
		Order("events.date ASC").
		Find(&events).Error

	return events, err
}

// JoinEvent locks the event row, loads its participants and calls admit.
// The participant is inserted only if admit returns nil, all in one
// transaction, so concurrent joins see each other.
func (d *Database) JoinEvent(ctx context.Context, participant *models.EventParticipant, admit func(*models.Event) error) (*models.Event, error) {
	var event models.Event
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEvent(tx, &event, participant.EventID); err != nil {
			return err
		}
		if err := admit(&event); err != nil {
			return err
		}

		if participant.JoinedAt.IsZero() {
			participant.JoinedAt = time.Now()
		}
		if err := tx.Create(participant).Error; err != nil {
			return err
		}
		event.Participants = append(event.Participants, *participant)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent applies mutate to the locked event and saves its columns.
// Participants are never written through this path.
func (d *Database) UpdateEvent(ctx context.Context, id uuid.UUID, mutate func(*models.Event) error) (*models.Event, error) {
	var event models.Event
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockEvent(tx, &event, id); err != nil {
			return err
		}
		if err := mutate(&event); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&event).Error
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteEvent removes the event and its participants once authorize allows it.
// Notices about the event are kept.
func (d *Database) DeleteEvent(ctx context.Context, id uuid.UUID, authorize func(*models.Event) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := lockEvent(tx, &event, id); err != nil {
			return err
		}
		if err := authorize(&event); err != nil {
			return err
		}

		if err := tx.Delete(&models.EventParticipant{}, "event_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Event{}, "id = ?", id).Error
	})
}

func lockEvent(tx *gorm.DB, event *models.Event, id uuid.UUID) error {
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(event, "id = ?", id).Error; err != nil {
		return err
	}
	return tx.Where("event_id = ?", id).Order("joined_at ASC").Find(&event.Participants).Error
}

func (d *Database) RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	return d.db.WithContext(ctx).
		Delete(&models.EventParticipant{}, "event_id = ? AND user_id = ?", eventID, userID).Error
}
