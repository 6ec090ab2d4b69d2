package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crm-argus/argus-api/internal/config"
	"github.com/crm-argus/argus-api/internal/domain"
	"github.com/crm-argus/argus-api/internal/mapper"
	"github.com/crm-argus/argus-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService manages application logins
type UserService struct {
	userRepo *repository.UserRepository
	db       *gorm.DB
	logger   *zap.Logger
	cost     int
}

func NewUserService(userRepo *repository.UserRepository, db *gorm.DB, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		db:       db,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// WithHashCost returns a copy using the given bcrypt cost
func (s *UserService) WithHashCost(cost int) *UserService {
	copied := *s
	copied.cost = cost
	return &copied
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *UserService) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.UserDTO, error) {
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		IsActive:     true,
	}
	if user.Role == "" {
		user.Role = domain.UserRoleUser
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user created",
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
		zap.String("role", string(user.Role)))

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.UserDTO, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.UserDTO, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	dtos := make([]domain.UserDTO, len(users))
	for i := range users {
		dtos[i] = mapper.ToUserDTO(&users[i])
	}
	return dtos, nil
}

// requireOtherAdmin fails when removing admin rights from user would leave no active admin
func requireOtherAdmin(ctx context.Context, users *repository.UserRepository, user *domain.User) error {
	if user.Role != domain.UserRoleAdmin || !user.IsActive {
		return nil
	}
	admins, err := users.CountActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return domain.NewValidationError("role", "at least one active admin is required")
	}
	return nil
}

// Update overwrites the profile, role and active flag. The last active admin
// can neither be demoted nor deactivated.
func (s *UserService) Update(ctx context.Context, id int64, req *domain.UpdateUserRequest) (*domain.UserDTO, error) {
	var user *domain.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)

		var err error
		user, err = users.GetByID(ctx, id)
		if err != nil {
			return err
		}

		active := user.IsActive
		if req.IsActive != nil {
			active = *req.IsActive
		}
		if req.Role != domain.UserRoleAdmin || !active {
			if err := requireOtherAdmin(ctx, users, user); err != nil {
				return err
			}
		}

		user.Email = strings.TrimSpace(req.Email)
		user.FirstName = req.FirstName
		user.LastName = req.LastName
		user.Role = req.Role
		user.IsActive = active

		ok, err := users.Update(ctx, user)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	dto := mapper.ToUserDTO(user)
	return &dto, nil
}

// Delete removes a user unless it is the last active admin
func (s *UserService) Delete(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)

		user, err := users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := requireOtherAdmin(ctx, users, user); err != nil {
			return err
		}

		ok, err := users.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.Info("user deleted", zap.Int64("user_id", id))
	return nil
}

// ChangePassword sets a new password. With verifyCurrent the current password must match.
func (s *UserService) ChangePassword(ctx context.Context, id int64, req *domain.ChangePasswordRequest, verifyCurrent bool) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if verifyCurrent && !checkPassword(user.PasswordHash, req.CurrentPassword) {
		return domain.NewValidationError("current_password", "does not match")
	}

	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	ok, err := s.userRepo.UpdatePassword(ctx, id, hash)
	if err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to change password: %w", domain.ErrNotFound)
	}

	s.logger.Info("password changed", zap.Int64("user_id", id))
	return nil
}

// EnsureAdmin creates the configured admin when no user exists yet.
// It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, cfg *config.AuthConfig) (bool, error) {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if cfg.AdminPassword == "" {
		if cfg.Enabled {
			s.logger.Warn("no users exist and no admin password is configured, nobody can log in")
		}
		return false, nil
	}

	_, err = s.Create(ctx, &domain.CreateUserRequest{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     domain.UserRoleAdmin,
	})
	var constraint *domain.ConstraintViolationError
	if errors.As(err, &constraint) {
		// another instance bootstrapped concurrently
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", zap.String("username", cfg.AdminUsername))
	return true, nil
}
