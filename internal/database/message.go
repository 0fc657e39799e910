package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/thereayou/gatherly/internal/models"
	"gorm.io/gorm"
)

func (d *Database) SaveMessage(ctx context.Context, message *models.Message) error {
	return d.db.WithContext(ctx).Create(message).Error
}

func (d *Database) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	if err := d.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// MarkMessageRead sets the read flag and returns the updated message.
func (d *Database) MarkMessageRead(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&message, "id = ?", id).Error; err != nil {
			return err
		}
		if message.IsRead {
			return nil
		}
		message.IsRead = true
		return tx.Model(&message).Update("is_read", true).Error
	})
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// GetConversation returns every message exchanged between a and b, oldest first.
func (d *Database) GetConversation(ctx context.Context, a, b uuid.UUID) ([]models.Message, error) {
	var messages []models.Message

	err := d.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Where("deleted = ?", false).
		Order("created_at ASC").
		Find(&messages).Error

	return messages, err
}

// GetChatList returns the latest message per conversation partner of userID,
// newest conversation first.
func (d *Database) GetChatList(ctx context.Context, userID uuid.UUID) ([]models.ChatSummary, error) {
	var messages []models.Message

	err := d.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Where("deleted = ?", false).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool)
	chats := make([]models.ChatSummary, 0)
	for _, msg := range messages {
		peer := msg.ReceiverID
		if peer == userID {
			peer = msg.SenderID
		}
		if seen[peer] {
			continue
		}
		seen[peer] = true
		chats = append(chats, models.ChatSummary{PeerID: peer, LatestMessage: msg})
	}

	return chats, nil
}
