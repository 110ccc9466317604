package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-auth-service/internal/model"
)

const bcryptCost = 12

// UserLookup resolves a login (username or email) to a stored user.
type UserLookup interface {
	FindByUsernameOrEmail(ctx context.Context, login string) (model.User, error)
}

// AuthService checks a username-or-email plus password pair. An unknown
// login and a wrong password are indistinguishable to the caller: both
// return model.ErrInvalidCredentials, and both cost one bcrypt comparison.
type AuthService struct {
	users     UserLookup
	dummyHash []byte
}

func NewAuthService(users UserLookup) (*AuthService, error) {
	// Compared against on unknown logins so the miss path burns the same
	// bcrypt work as a real comparison.
	dummyHash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare comparison hash: %w", err)
	}

	return &AuthService{users: users, dummyHash: dummyHash}, nil
}

func (s *AuthService) Authenticate(ctx context.Context, login string, password string) (model.User, error) {
	user, err := s.users.FindByUsernameOrEmail(ctx, login)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return model.User{}, model.ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, model.ErrInvalidCredentials
	}

	return user, nil
}
