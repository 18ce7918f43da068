package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

func newAccountUseCase() (*AccountUseCase, *userRepoFake, *revocationFake) {
	users := newUserRepoFake()
	revoked := &revocationFake{}
	return NewAccountUseCase(users, hasherFake{}, &tokenFake{}, revoked), users, revoked
}

func TestRegisterNormalizesEmailAndHashesPassword(t *testing.T) {
	uc, users, _ := newAccountUseCase()

	user, err := uc.Register(context.Background(), "  Alice@Example.com ", "secret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == 0 || user.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	stored := users.byEmail["alice@example.com"]
	if stored == nil || stored.PasswordHash != "hashed:secret" {
		t.Fatalf("expected hashed password to be stored, got %+v", stored)
	}
}

func TestRegisterRejectsPasswordLongerThan72Bytes(t *testing.T) {
	uc, _, _ := newAccountUseCase()

	_, err := uc.Register(context.Background(), "bob@example.com", strings.Repeat("가", 25))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	msg, _ := domain.PublicMessage(err)
	if !strings.Contains(msg, "72 bytes") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRegisterAcceptsExactly72Bytes(t *testing.T) {
	uc, _, _ := newAccountUseCase()

	if _, err := uc.Register(context.Background(), "bob@example.com", strings.Repeat("a", 72)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	uc, _, _ := newAccountUseCase()
	if _, err := uc.Register(context.Background(), "dup@example.com", "pw"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := uc.Register(context.Background(), "DUP@example.com", "pw")
	if !domain.IsKind(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if msg, _ := domain.PublicMessage(err); msg != "Email already registered" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRegisterRejectsMalformedEmail(t *testing.T) {
	uc, _, _ := newAccountUseCase()

	_, err := uc.Register(context.Background(), "not-an-email", "pw")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoginReturnsSameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	uc, _, _ := newAccountUseCase()
	if _, err := uc.Register(context.Background(), "carol@example.com", "right"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, errUnknown := uc.Login(context.Background(), "nobody@example.com", "right")
	_, errWrong := uc.Login(context.Background(), "carol@example.com", "wrong")
	for _, err := range []error{errUnknown, errWrong} {
		if !domain.IsKind(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if msg, _ := domain.PublicMessage(err); msg != "Invalid credentials" {
			t.Fatalf("unexpected message %q", msg)
		}
	}
}

func TestLoginThenAuthenticate(t *testing.T) {
	uc, _, _ := newAccountUseCase()
	registered, err := uc.Register(context.Background(), "dave@example.com", "pw")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	token, err := uc.Login(context.Background(), "dave@example.com", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token.TokenType != "bearer" || token.Token == "" {
		t.Fatalf("unexpected token: %+v", token)
	}

	user, err := uc.Authenticate(context.Background(), token.Token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.ID != registered.ID {
		t.Fatalf("expected user %d, got %d", registered.ID, user.ID)
	}
}

func TestAuthenticateRejectsGarbageToken(t *testing.T) {
	uc, _, _ := newAccountUseCase()

	_, err := uc.Authenticate(context.Background(), "garbage")
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if msg, _ := domain.PublicMessage(err); msg != "Invalid token" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestAuthenticateReportsDeletedUser(t *testing.T) {
	uc, _, _ := newAccountUseCase()

	_, err := uc.Authenticate(context.Background(), "tok-42-1")
	if msg, _ := domain.PublicMessage(err); msg != "User not found" {
		t.Fatalf("expected User not found, got %v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	uc, _, revoked := newAccountUseCase()
	if _, err := uc.Register(context.Background(), "erin@example.com", "pw"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	token, err := uc.Login(context.Background(), "erin@example.com", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := uc.Logout(context.Background(), token.Token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if len(revoked.revoked) != 1 {
		t.Fatalf("expected one revoked token, got %d", len(revoked.revoked))
	}
	if _, err := uc.Authenticate(context.Background(), token.Token); !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}
