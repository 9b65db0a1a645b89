// Package sessiontoken issues and verifies the bearer tokens handed out on
// login. A token only identifies a session; whether that session is still
// the active one is decided against the accounts store.
package sessiontoken

import (
	"errors"
	"fmt"
	"time"

	accountsdomain "allowance-app-go/internal/domain/accounts"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "allowance-app"

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpiredToken = errors.New("session token expired")
	ErrEmptySecret  = errors.New("session token secret is required")
)

type Claims struct {
	jwt.RegisteredClaims
	Name    string              `json:"name"`
	Role    accountsdomain.Role `json:"role"`
	ChildID int64               `json:"child_id,omitempty"`
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (i *Issuer) Issue(session accountsdomain.Session) (string, error) {
	issuedAt := session.CreatedAt
	if issuedAt.IsZero() {
		issuedAt = i.now()
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  session.ID,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
		Name:    session.Name,
		Role:    session.Role,
		ChildID: session.ChildID,
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(i.ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) Parse(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// Matches reports whether the claims were issued for session.
func (c *Claims) Matches(session accountsdomain.Session) bool {
	if c.Subject != session.ID || c.Role != session.Role {
		return false
	}
	if c.IssuedAt == nil {
		return false
	}
	return c.IssuedAt.Unix() == session.CreatedAt.Unix()
}
