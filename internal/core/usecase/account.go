package usecase

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/kirillkom/docs-backend/internal/core/domain"
	"github.com/kirillkom/docs-backend/internal/core/ports"
)

// MaxPasswordBytes is the longest password bcrypt can hash without truncation.
const MaxPasswordBytes = 72

const (
	msgPasswordTooLong   = "Password too long (bcrypt supports up to 72 bytes). Use a shorter password."
	msgEmailRegistered   = "Email already registered"
	msgInvalidCredential = "Invalid credentials"
	msgInvalidToken      = "Invalid token"
	msgUserNotFound      = "User not found"
)

type AccountUseCase struct {
	users   ports.UserRepository
	hasher  ports.PasswordHasher
	tokens  ports.TokenIssuer
	revoked ports.RevocationStore
}

func NewAccountUseCase(
	users ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	revoked ports.RevocationStore,
) *AccountUseCase {
	return &AccountUseCase{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		revoked: revoked,
	}
}

func (uc *AccountUseCase) Register(ctx context.Context, email, password string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, domain.NewPublicError(domain.ErrInvalidInput, "Password is required")
	}
	if len([]byte(password)) > MaxPasswordBytes {
		return nil, domain.NewPublicError(domain.ErrInvalidInput, msgPasswordTooLong)
	}

	existing, err := uc.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, domain.NewPublicError(domain.ErrConflict, msgEmailRegistered)
	case err != nil && !domain.IsKind(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		if domain.IsKind(err, domain.ErrConflict) {
			return nil, domain.NewPublicError(domain.ErrConflict, msgEmailRegistered)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (uc *AccountUseCase) Login(ctx context.Context, email, password string) (*domain.AccessToken, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil {
		if domain.IsKind(err, domain.ErrUserNotFound) {
			return nil, domain.NewPublicError(domain.ErrUnauthorized, msgInvalidCredential)
		}
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if !uc.hasher.Verify(user.PasswordHash, password) {
		return nil, domain.NewPublicError(domain.ErrUnauthorized, msgInvalidCredential)
	}

	token, claims, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &domain.AccessToken{
		Token:     token,
		TokenType: "bearer",
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

func (uc *AccountUseCase) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := uc.parse(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := uc.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsKind(err, domain.ErrUserNotFound) {
			return nil, domain.NewPublicError(domain.ErrUnauthorized, msgUserNotFound)
		}
		return nil, fmt.Errorf("lookup user by id: %w", err)
	}
	return user, nil
}

func (uc *AccountUseCase) Logout(ctx context.Context, token string) error {
	claims, err := uc.parse(ctx, token)
	if err != nil {
		return err
	}
	if err := uc.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (uc *AccountUseCase) parse(ctx context.Context, token string) (domain.TokenClaims, error) {
	claims, err := uc.tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		return domain.TokenClaims{}, domain.NewPublicError(domain.ErrUnauthorized, msgInvalidToken)
	}
	revoked, err := uc.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return domain.TokenClaims{}, domain.WrapError(domain.ErrTemporary, "check token revocation", err)
	}
	if revoked {
		return domain.TokenClaims{}, domain.NewPublicError(domain.ErrUnauthorized, msgInvalidToken)
	}
	return claims, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", domain.NewPublicError(domain.ErrInvalidInput, "Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.NewPublicError(domain.ErrInvalidInput, "Invalid email address")
	}
	return email, nil
}
