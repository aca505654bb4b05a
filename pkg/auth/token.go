package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/linkcart/storefront-core/pkg/config"
	"github.com/linkcart/storefront-core/pkg/enums"
)

// ErrInvalidToken covers every reason a presented token is refused.
var ErrInvalidToken = errors.New("invalid staff token")

// Staff identifies the back-office user a token is minted for.
type Staff struct {
	UserID  uuid.UUID
	Email   string
	Role    enums.StaffRole
	TokenID string
}

// Claims is the JWT body shared with the auth platform.
type Claims struct {
	UserID uuid.UUID       `json:"user_id"`
	Email  string          `json:"email,omitempty"`
	Role   enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}

// Allows reports whether the token role is one of allowed.
func (c *Claims) Allows(allowed ...enums.StaffRole) bool {
	if c == nil {
		return false
	}
	for _, role := range allowed {
		if c.Role == role {
			return true
		}
	}
	return false
}

// Keys signs and verifies HS256 staff tokens for one issuer.
type Keys struct {
	secret []byte
	issuer string
	ttl    time.Duration
	parser *jwt.Parser
}

func NewKeys(cfg config.JWTConfig) (*Keys, error) {
	switch {
	case cfg.Secret == "":
		return nil, errors.New("jwt secret is required")
	case strings.TrimSpace(cfg.Issuer) == "":
		return nil, errors.New("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return nil, errors.New("jwt expiration minutes must be positive")
	}
	return &Keys{
		secret: []byte(cfg.Secret),
		issuer: strings.TrimSpace(cfg.Issuer),
		ttl:    time.Duration(cfg.ExpirationMinutes) * time.Minute,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(strings.TrimSpace(cfg.Issuer)),
			jwt.WithIssuedAt(),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(cfg.Leeway),
		),
	}, nil
}

// Mint issues a token for staff valid from now for the configured lifetime.
// Local tooling and tests use it; production tokens come from the auth platform.
func (k *Keys) Mint(now time.Time, staff Staff) (string, error) {
	if staff.UserID == uuid.Nil {
		return "", errors.New("user id is required")
	}
	if !staff.Role.IsValid() {
		return "", fmt.Errorf("invalid staff role %q", staff.Role)
	}
	tokenID := strings.TrimSpace(staff.TokenID)
	if tokenID == "" {
		tokenID = uuid.NewString()
	}

	claims := Claims{
		UserID: staff.UserID,
		Email:  strings.TrimSpace(staff.Email),
		Role:   staff.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    k.issuer,
			Subject:   staff.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(k.ttl)),
			ID:        tokenID,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k.secret)
	if err != nil {
		return "", fmt.Errorf("sign staff token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and lifetime. Failures wrap ErrInvalidToken.
func (k *Keys) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, err := k.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return k.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id missing", ErrInvalidToken)
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
