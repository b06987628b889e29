package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"alfredoptarigan/skill-evaluator/internal/repositories"
)

func newTestAuth(t *testing.T) AuthService {
	t.Helper()

	users, err := repositories.NewJSONUserRepository(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("user repo: %v", err)
	}
	svc := NewAuthService(users, nil).(*authService)
	svc.cost = bcrypt.MinCost
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	user, err := auth.Register(ctx, RegisterInput{
		Name: " Jane ", Email: "Jane@Example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Name != "Jane" || user.Email != "jane@example.com" || len(user.ID) != 32 {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.PasswordHash == "secret1" {
		t.Fatalf("password stored in plain text")
	}

	logged, err := auth.Login(ctx, "JANE@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID || logged.LastLogin == nil {
		t.Fatalf("unexpected login result %+v", logged)
	}

	got, err := auth.GetUser(ctx, user.ID)
	if err != nil || got.LastLogin == nil {
		t.Fatalf("last login not persisted: %+v, %v", got, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	if _, err := auth.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret1"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	cases := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"missing name", RegisterInput{Email: "b@example.com", Password: "secret1", ConfirmPassword: "secret1"}, ErrMissingFields},
		{"bad email", RegisterInput{Name: "B", Email: "not-an-email", Password: "secret1", ConfirmPassword: "secret1"}, ErrInvalidEmail},
		{"mismatch", RegisterInput{Name: "B", Email: "b@example.com", Password: "secret1", ConfirmPassword: "secret2"}, ErrPasswordMismatch},
		{"too short", RegisterInput{Name: "B", Email: "b@example.com", Password: "abc", ConfirmPassword: "abc"}, ErrPasswordTooShort},
		{"too long", RegisterInput{Name: "B", Email: "b@example.com", Password: strings.Repeat("p", 80), ConfirmPassword: strings.Repeat("p", 80)}, ErrPasswordTooLong},
		{"taken", RegisterInput{Name: "B", Email: "A@example.com", Password: "secret1", ConfirmPassword: "secret1"}, ErrEmailTaken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var fe *FormError
			if !errors.As(err, &fe) {
				t.Fatalf("validation errors must be form errors")
			}
		})
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)

	if _, err := auth.Register(ctx, RegisterInput{Name: "A", Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret1"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	if _, err := auth.Login(ctx, "a@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected invalid credentials, got %v", err)
	}
	if _, err := auth.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected invalid credentials, got %v", err)
	}
}
