package services

import (
	"context"

	"gorm.io/gorm"

	"volunteer_backend/internal/auth"
	"volunteer_backend/internal/logger"
	"volunteer_backend/internal/models"
	"volunteer_backend/internal/repositories"
	"volunteer_backend/internal/services/dto"
	"volunteer_backend/pkg/apperrors"
)

type UserService interface {
	GetUser(ctx context.Context, db *gorm.DB, userID string) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	// CompleteProfile задает роль (только если она еще пустая) и выдает новый токен с ролью
	CompleteProfile(ctx context.Context, db *gorm.DB, userID string, req *dto.CompleteProfileRequest) (*dto.CompleteProfileResponse, error)
}

type userService struct {
	userRepo repositories.UserRepository
	tokens   *auth.Manager
	settings Settings
}

func NewUserService(userRepo repositories.UserRepository, tokens *auth.Manager, settings Settings) UserService {
	return &userService{
		userRepo: userRepo,
		tokens:   tokens,
		settings: settings,
	}
}

func (s *userService) GetUser(ctx context.Context, db *gorm.DB, userID string) (*dto.UserResponse, error) {
	user, err := s.find(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) UpdateUser(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := s.update(ctx, db, userID, req); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, db, userID)
}

func (s *userService) CompleteProfile(ctx context.Context, db *gorm.DB, userID string, req *dto.CompleteProfileRequest) (*dto.CompleteProfileResponse, error) {
	role := models.UserRole(req.Role)
	if !role.IsValid() || role == models.UserRoleAdmin {
		return nil, apperrors.ErrInvalidUserRole()
	}

	// SetRole - условный UPDATE (role IS NULL), повторное завершение профиля -> 403
	if err := storeExec(ctx, db, s.settings.queryTimeout(), func(tx *gorm.DB) error {
		return s.userRepo.SetRole(tx, userID, role)
	}); err != nil {
		return nil, storageError(err)
	}

	if err := s.update(ctx, db, userID, &req.UpdateUserRequest); err != nil {
		return nil, err
	}

	user, err := s.find(ctx, db, userID)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "profile completed", "user_id", userID, "role", string(role))

	return &dto.CompleteProfileResponse{
		User:        dto.NewUserResponse(user),
		AccessToken: token,
	}, nil
}

func (s *userService) update(ctx context.Context, db *gorm.DB, userID string, req *dto.UpdateUserRequest) error {
	if err := checkCoordinates(req.Latitude, req.Longitude); err != nil {
		return err
	}
	fields := req.Fields()
	if len(fields) == 0 {
		return nil
	}

	err := storeExec(ctx, db, s.settings.queryTimeout(), func(tx *gorm.DB) error {
		return s.userRepo.Update(tx, userID, fields)
	})
	if err != nil && repositories.IsUniqueViolation(err) {
		return apperrors.ErrConflict(err, "user", "Device token is already registered to another user")
	}
	return storageError(err)
}

func (s *userService) find(ctx context.Context, db *gorm.DB, userID string) (*models.User, error) {
	user, err := storeValue(ctx, db, s.settings.queryTimeout(), func(tx *gorm.DB) (*models.User, error) {
		return s.userRepo.FindByID(tx, userID)
	})
	if err != nil {
		return nil, storageError(err)
	}
	return user, nil
}
