package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role identifies which side of the marketplace a principal belongs to.
type Role string

const (
	RoleProvider Role = "provider"
	RolePatient  Role = "patient"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims is the verified identity attached to a request.
type Claims struct {
	Principal uuid.UUID
	Email     string
	Role      Role
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies bearer tokens. It is the only place in
// the codebase that knows about JWT mechanics.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// IssueToken mints an HS256 token for the given principal and role.
func (m *TokenManager) IssueToken(principal uuid.UUID, email string, role Role) (string, error) {
	now := time.Now()

	claims := tokenClaims{
		Email: email,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// TokenTTL reports how long issued tokens remain valid.
func (m *TokenManager) TokenTTL() time.Duration {
	return m.ttl
}

// VerifyToken parses and validates a token, returning the claims it carries.
func (m *TokenManager) VerifyToken(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	principal, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	role := Role(claims.Role)
	if role != RoleProvider && role != RolePatient {
		return nil, ErrInvalidToken
	}

	return &Claims{
		Principal: principal,
		Email:     claims.Email,
		Role:      role,
	}, nil
}
