package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"alfredoptarigan/skill-evaluator/internal/logger"
	"alfredoptarigan/skill-evaluator/internal/models"
	"alfredoptarigan/skill-evaluator/internal/repositories"
)

const (
	MinPasswordLength = 6
	// bcrypt rejects longer inputs
	MaxPasswordBytes  = 72
)

// FormError carries a message meant to be shown back to the user on the form.
type FormError struct {
	Message string
}

func (e *FormError) Error() string {
	return e.Message
}

var (
	ErrInvalidCredentials error = &FormError{Message: "Invalid email or password"}
	ErrPasswordMismatch   error = &FormError{Message: "Passwords do not match"}
	ErrPasswordTooShort   error = &FormError{Message: fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)}
	ErrPasswordTooLong    error = &FormError{Message: fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes)}
	ErrEmailTaken         error = &FormError{Message: "User with this email already exists"}
	ErrMissingFields      error = &FormError{Message: "Name, email and password are required"}
	ErrInvalidEmail       error = &FormError{Message: "Please enter a valid email address"}
)

type RegisterInput struct {
	Name            string `form:"name"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

type authService struct {
	users repositories.UserRepository
	cost  int
	now   func() time.Time
	log   *zap.Logger
}

func NewAuthService(users repositories.UserRepository, log *zap.Logger) AuthService {
	return &authService{
		users: users,
		cost:  bcrypt.DefaultCost,
		now:   func() time.Time { return time.Now().UTC() },
		log:   logger.OrNop(log),
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" || email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if len(in.Password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := NewUserID()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("👤 User registered", zap.String("user_id", user.ID))
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	at := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, at); err != nil {
		s.log.Warn("⚠️ Failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &at
	}
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// NewUserID returns 16 random bytes as hex.
func NewUserID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate user id: %w", err)
	}
	return hex.EncodeToString(b), nil
}
