package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "eventhub/internal/errors"
	"eventhub/internal/idp"
	"eventhub/internal/model"
	"eventhub/internal/repository"
)

// UserService exposes the administrative user management operations.
type UserService interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, email, fullName, password string, isAdmin bool, departmentID *uint) (*model.User, error)
	SetActive(ctx context.Context, id uint, active bool) error
	SetPassword(ctx context.Context, id uint, newPassword string) error
}

type userService struct {
	users    repository.UserRepository
	provider idp.Service
}

// NewUserService builds a UserService.
func NewUserService(users repository.UserRepository, provider idp.Service) UserService {
	return &userService{users: users, provider: provider}
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// CreateUser provisions a local-credential account. The password hash lives
// in the relational store only, so the new user authenticates locally from
// the first login.
func (s *userService) CreateUser(ctx context.Context, email, fullName, password string, isAdmin bool, departmentID *uint) (*model.User, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        model.CanonicalEmail(email),
		FullName:     fullName,
		PasswordHash: string(hash),
		IsActive:     true,
		IsAdmin:      isAdmin,
		DepartmentID: departmentID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SetActive flips the local activation flag, which blocks sign-in on its
// own, then mirrors the state to the provider best effort.
func (s *userService) SetActive(ctx context.Context, id uint, active bool) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.users.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("set active: %w", err)
	}

	if s.provider != nil {
		if ok := s.provider.BlockUser(ctx, user.Email, !active); !ok {
			log.Printf("users: provider block sync for %s failed, local flag is authoritative", user.Email)
		}
	}
	return nil
}

// SetPassword overwrites the user's local hash, switching them to local
// authentication, then propagates the change to the provider best effort.
func (s *userService) SetPassword(ctx context.Context, id uint, newPassword string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("persist password: %w", err)
	}

	if s.provider != nil {
		if ok := s.provider.UpdatePassword(ctx, user.Email, newPassword); !ok {
			log.Printf("users: provider password sync for %s failed, local hash is authoritative", user.Email)
		}
	}
	return nil
}
