package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

const DefaultTokenTTL = 60 * time.Minute

// JWTIssuer signs HS256 access tokens carrying the user id as subject.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTIssuer(secret string, ttl time.Duration) (*JWTIssuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (i *JWTIssuer) Issue(userID int64) (string, domain.TokenClaims, error) {
	now := i.now().UTC()
	claims := domain.TokenClaims{
		UserID:    userID,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(i.ttl).Truncate(time.Second),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        claims.TokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", domain.TokenClaims{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

func (i *JWTIssuer) Parse(raw string) (domain.TokenClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return domain.TokenClaims{}, domain.WrapError(domain.ErrUnauthorized, "parse token", err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return domain.TokenClaims{}, domain.WrapError(domain.ErrUnauthorized, "parse token", fmt.Errorf("bad subject %q", claims.Subject))
	}
	out := domain.TokenClaims{UserID: userID, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
