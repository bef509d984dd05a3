// Package services holds the business rules behind the HTTP handlers.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripmind/models"
	"tripmind/repository"

	"github.com/go-playground/validator/v10"
)

const (
	msgAllFieldsRequired  = "All fields are required."
	msgEmailInUse         = "Email already in use."
	msgInvalidCredentials = "Invalid email or password."
	msgUserNotFound       = "User not found."
)

// TokenIssuer signs session tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token string
	User  models.PublicUser
}

type AuthService struct {
	users    repository.UserRepository
	tokens   TokenIssuer
	validate *validator.Validate
	now      func() time.Time
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens, validate: newValidator(), now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.PublicUser, error) {
	if err := s.validate.Struct(in); err != nil {
		return models.PublicUser{}, validation(msgAllFieldsRequired, err)
	}

	_, err := s.users.ByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return models.PublicUser{}, conflict(msgEmailInUse)
	case !errors.Is(err, repository.ErrNotFound):
		return models.PublicUser{}, fmt.Errorf("lookup user: %w", err)
	}

	u := &models.User{Name: in.Name, Email: in.Email, CreatedAt: s.now()}
	if err := u.SetPassword(in.Password); err != nil {
		return models.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.Create(ctx, u); err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repository.ErrDuplicate) {
			return models.PublicUser{}, conflict(msgEmailInUse)
		}
		return models.PublicUser{}, fmt.Errorf("create user: %w", err)
	}
	return u.Public(), nil
}

// Login answers the same AuthError for an unknown email and a wrong
// password.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validation(msgAllFieldsRequired, err)
	}

	u, err := s.users.ByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, authFailure(msgInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !u.CheckPassword(in.Password) {
		return nil, authFailure(msgInvalidCredentials)
	}

	token, err := s.tokens.Issue(u.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, User: u.Public()}, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ResetPassword replaces the password of the user registered under email.
func (s *AuthService) ResetPassword(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return validation(msgAllFieldsRequired, nil)
	}
	u, err := s.users.ByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(msgUserNotFound, err)
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if err := u.SetPassword(password); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, u.Password); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(msgUserNotFound, err)
		}
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
