package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/syncboard/syncboard/pkg/model"
)

// ErrUnauthenticated is returned for any credential failure: absent,
// malformed, bad signature, or past the hard expiry.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims is the token payload: exactly {id, email, role}. The user id
// rides in the registered Subject claim.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TokenManager issues and verifies HMAC-SHA256 tokens over a shared secret
// with a fixed validity window. Expiry is hard: a stale token is rejected,
// never refreshed.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a manager for the given shared secret and token
// lifetime.
func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: secret, ttl: ttl}
}

// Issue signs a token for the principal.
func (tm *TokenManager) Issue(p Principal) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
		Email: p.Email,
		Role:  string(p.Role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string and produces the Principal it
// carries. Every failure collapses to ErrUnauthenticated; callers must not
// branch on the underlying cause.
func (tm *TokenManager) Verify(tokenStr string) (Principal, error) {
	if tokenStr == "" {
		return Principal{}, ErrUnauthenticated
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: token subject is required", ErrUnauthenticated)
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	return Principal{ID: claims.Subject, Email: claims.Email, Role: role}, nil
}
