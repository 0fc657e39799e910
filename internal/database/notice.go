package database

import (
	"context"
	"time"

	"github.com/thereayou/gatherly/internal/models"
)

func (d *Database) SaveNotice(ctx context.Context, notice *models.EventNotice) error {
	return d.db.WithContext(ctx).Create(notice).Error
}

// ListNoticesSince returns notices stamped at or after since, newest first.
func (d *Database) ListNoticesSince(ctx context.Context, since time.Time) ([]models.EventNotice, error) {
	var notices []models.EventNotice

	err := d.db.WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("timestamp DESC").
		Find(&notices).Error

	return notices, err
}
