package security

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookieName is the cookie carrying the signed visitor session.
const SessionCookieName = "flashforge_session"

const sessionIssuer = "flashforge"

// ErrInvalidSession is returned for a session token that fails verification.
var ErrInvalidSession = errors.New("invalid session")

// Flash kinds
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Session is the anonymous visitor state kept client-side in a signed cookie.
type Session struct {
	VisitorID string
	Flashes   []Flash
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Flashes []Flash `json:"flashes,omitempty"`
}

// SessionCodec signs and verifies session cookies as HS256 JWTs.
type SessionCodec struct {
	key      []byte
	duration time.Duration
	now      func() time.Time
}

// NewSessionCodec creates a codec keyed from secret. Tokens expire after duration.
func NewSessionCodec(secret string, duration time.Duration) *SessionCodec {
	return &SessionCodec{
		key:      DeriveKey(secret, PurposeSession),
		duration: duration,
		now:      time.Now,
	}
}

// NewSession starts a session for a new visitor.
func NewSession() Session {
	return Session{VisitorID: GenerateVisitorID()}
}

// Duration returns how long an encoded session stays valid.
func (c *SessionCodec) Duration() time.Duration {
	return c.duration
}

// Encode signs s into a compact token.
func (c *SessionCodec) Encode(s Session) (string, error) {
	if s.VisitorID == "" {
		return "", fmt.Errorf("visitor ID is required")
	}
	now := c.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   s.VisitorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.duration)),
		},
		Flashes: s.Flashes,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Decode verifies token and returns the session it carries.
func (c *SessionCodec) Decode(token string) (Session, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	claims := &sessionClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Session{}, ErrInvalidSession
	}
	return Session{VisitorID: claims.Subject, Flashes: claims.Flashes}, nil
}

// GenerateVisitorID creates a new UUID for visitor identification
func GenerateVisitorID() string {
	return uuid.New().String()
}

// IsSecureRequest determines if the request is over HTTPS
// Checks TLS connection, X-Forwarded-Proto header (for reverse proxies), and URL scheme
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		return true
	}
	return r.URL.Scheme == "https"
}

// CreateSessionCookie creates a session cookie with proper security flags
// The Secure flag is automatically set based on the request scheme (HTTPS detection)
func CreateSessionCookie(r *http.Request, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}
