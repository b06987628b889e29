package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	ErrSessionRequired = errors.New("Session ID is required. Please refresh the page to start a new session.")
	ErrSessionInvalid  = errors.New("Invalid session ID. Please refresh the page to start a new session.")
	ErrTokenInvalid    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token has expired")
)

const tokenIssuer = "skill-evaluator"

type Claims struct {
	UserID string `json:"uid"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 login tokens.
type TokenManager struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, maxAge time.Duration) *TokenManager {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	return &TokenManager{key: []byte(secret), maxAge: maxAge, now: time.Now}
}

func (m *TokenManager) MaxAge() time.Duration {
	return m.maxAge
}

func (m *TokenManager) Issue(userID, name string) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func NewSessionID() string {
	return uuid.NewString()
}

// ValidateSessionID checks the practice-session cookie value.
func ValidateSessionID(id string) error {
	if id == "" {
		return ErrSessionRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrSessionInvalid
	}
	return nil
}
