package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the bearer token claims. Subject is the user id, ID the session id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer signs HS256 bearer tokens and registers each one as a session.
type Issuer struct {
	secret   []byte
	ttl      time.Duration
	sessions Sessions
	now      func() time.Time
}

// NewIssuer returns an Issuer. ttl <= 0 means 24h.
func NewIssuer(secret string, ttl time.Duration, sessions Sessions) *Issuer {
	if ttl <= 0 {
		ttl = sessionTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, sessions: sessions, now: time.Now}
}

// Issue creates a signed token for the user and records its session.
func (i *Issuer) Issue(ctx context.Context, userID int64, username string) (string, error) {
	now := i.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := i.sessions.Create(ctx, claims.ID, userID); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and that the session is still live. Errors
// other than ErrInvalidToken mean the session could not be looked up.
func (i *Issuer) Verify(ctx context.Context, raw string) (int64, *Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, nil, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.ID == "" {
		return 0, nil, ErrInvalidToken
	}
	owner, ok, err := i.sessions.GetUserID(ctx, claims.ID)
	if err != nil {
		return 0, nil, err
	}
	if !ok || owner != userID {
		return 0, nil, ErrInvalidToken
	}
	return userID, &claims, nil
}

// Revoke ends the session behind a verified token.
func (i *Issuer) Revoke(ctx context.Context, claims *Claims) error {
	return i.sessions.Delete(ctx, claims.ID)
}
