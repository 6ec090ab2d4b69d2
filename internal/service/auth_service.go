package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crm-argus/argus-api/internal/auth"
	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/mapper"
	"github.com/crm-argus/argus-api/internal/repository"
	"go.uber.org/zap"
)

// AuthService exchanges credentials for access tokens
type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *auth.TokenManager
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(userRepo *repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// Login verifies the username or email and password and issues a token
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	user, err := s.userRepo.GetByLogin(ctx, req.Username)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info("login failed", zap.String("username", req.Username), zap.String("reason", "unknown user"))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !checkPassword(user.PasswordHash, req.Password) {
		s.logger.Info("login failed", zap.String("username", req.Username), zap.String("reason", "wrong password"))
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record last login", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID), zap.String("username", user.Username))

	return &domain.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		User:      mapper.ToUserDTO(user),
	}, nil
}

// Me returns the user behind the request context
func (s *AuthService) Me(ctx context.Context) (*domain.UserDTO, error) {
	current, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if current.Anonymous {
		return &domain.UserDTO{Username: current.Username, Role: current.Role, IsActive: true}, nil
	}

	user, err := s.userRepo.GetByID(ctx, current.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}
