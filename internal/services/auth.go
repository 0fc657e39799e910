package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/thereayou/gatherly/internal/models"
	"github.com/thereayou/gatherly/pkg/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	users     UserStore
	jwt       *auth.JWTManager
	blacklist auth.Blacklist
	log       *zap.Logger
}

func NewAuthService(users UserStore, jwtMgr *auth.JWTManager, blacklist auth.Blacklist, log *zap.Logger) *AuthService {
	return &AuthService{users: users, jwt: jwtMgr, blacklist: blacklist, log: log.Named("auth")}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeErr("find user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.SaveUser(ctx, user); err != nil {
		return nil, storeErr("save user", err)
	}

	return s.issue(user)
}

// Login checks credentials and issues a fresh access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, storeErr("find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}

	if err := s.users.UpdateLastSeen(ctx, user.ID); err != nil {
		s.log.Warn("update last seen", zap.Stringer("user", user.ID), zap.Error(err))
	}

	return s.issue(user)
}

// Logout revokes token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ttl, err := s.jwt.Remaining(token)
	if err != nil {
		return ErrUnauthorized
	}
	if err := s.blacklist.Revoke(ctx, token, ttl); err != nil {
		return storeErr("revoke token", err)
	}
	return nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID.String())
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
