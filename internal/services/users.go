package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/thereayou/gatherly/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateProfileInput carries the profile fields to change; nil fields are kept.
type UpdateProfileInput struct {
	Name  *string
	Email *string
}

type UserService struct {
	users UserStore
	log   *zap.Logger
}

func NewUserService(users UserStore, log *zap.Logger) *UserService {
	return &UserService{users: users, log: log.Named("users")}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, storeErr("user", err)
	}
	return user, nil
}

// UpdateProfile changes the caller's name or email. An email already owned by
// another account is rejected with ErrEmailTaken.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, storeErr("user", err)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 || len(name) > 50 {
			return nil, invalid("name must be 2 to 50 characters")
		}
		user.Name = name
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if !strings.Contains(email, "@") {
			return nil, invalid("email %q", *in.Email)
		}
		if email != user.Email {
			owner, err := s.users.FindUserByEmail(ctx, email)
			switch {
			case err == nil && owner.ID != id:
				return nil, ErrEmailTaken
			case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
				return nil, storeErr("find user", err)
			}
			user.Email = email
		}
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		// The unique index catches a concurrent claim of the same email.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, storeErr("update user", err)
	}

	s.log.Info("profile updated", zap.Stringer("user", id))
	return user, nil
}
