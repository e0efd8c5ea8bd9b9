package server

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	defaultDocumentLinkTTL = 15 * time.Minute
	linkKeySize            = 32
)

// ErrInvalidDocumentLink is returned for missing, tampered or expired download tokens.
var ErrInvalidDocumentLink = errors.New("invalid or expired document link")

// DocumentLinks issues short-lived HS256 tokens that grant access to a single
// stored document.
type DocumentLinks struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewDocumentLinks signs with secret, or with a random key when secret is
// empty. A non-positive ttl falls back to 15 minutes.
func NewDocumentLinks(secret string, ttl time.Duration) *DocumentLinks {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, linkKeySize)
		_, _ = rand.Read(key)
	}
	if ttl <= 0 {
		ttl = defaultDocumentLinkTTL
	}
	return &DocumentLinks{key: key, ttl: ttl, now: time.Now}
}

// Sign returns a token for the named document and the moment it expires.
func (l *DocumentLinks) Sign(name string) (string, time.Time, error) {
	issued := l.now()
	expires := issued.Add(l.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   name,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	signed, err := token.SignedString(l.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign document link: %w", err)
	}
	return signed, expires, nil
}

// URL returns the download path for the named document carrying a fresh token.
func (l *DocumentLinks) URL(name string) (string, time.Time, error) {
	token, expires, err := l.Sign(name)
	if err != nil {
		return "", time.Time{}, err
	}
	return "/api/documents/" + url.PathEscape(name) + "?" + url.Values{"token": {token}}.Encode(), expires, nil
}

// Verify checks that token was issued by these links for the named document
// and has not expired.
func (l *DocumentLinks) Verify(token, name string) error {
	if token == "" {
		return ErrInvalidDocumentLink
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return l.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocumentLink, err)
	}
	if claims.Subject != name {
		return ErrInvalidDocumentLink
	}
	return nil
}
