package handlers

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"flashforge/internal/security"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const SessionContextKey ContextKey = "session"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	sessions     *security.SessionCodec
	csrf         *security.CSRFGenerator
	limiter      *security.RateLimiter
	studyEnabled bool
	errors       *ErrorPages
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(sessions *security.SessionCodec, csrf *security.CSRFGenerator, limiter *security.RateLimiter, studyEnabled bool, errors *ErrorPages) *Middleware {
	return &Middleware{
		sessions:     sessions,
		csrf:         csrf,
		limiter:      limiter,
		studyEnabled: studyEnabled,
		errors:       errors,
	}
}

// Session makes sure every request carries a visitor session. A missing or
// invalid cookie is replaced by a fresh session before the handler runs.
func (m *Middleware) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var session security.Session
		cookie, err := r.Cookie(security.SessionCookieName)
		if err == nil {
			session, err = m.sessions.Decode(cookie.Value)
		}
		if err != nil {
			session = security.NewSession()
			m.saveSession(w, r, session)
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, &session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CSRFProtect rejects state-changing requests without a valid token for the
// visitor, taken from the form field or the X-CSRF-Token header
func (m *Middleware) CSRFProtect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(CSRFHeaderName)
		if token == "" {
			token = r.PostFormValue(CSRFFormField)
		}

		if !m.csrf.ValidateToken(VisitorID(r), token) {
			log.Warn().Str("path", r.URL.Path).Str("ip", security.GetClientIP(r)).Msg("rejected request with invalid CSRF token")
			http.Error(w, ErrInvalidCSRFToken, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit limits requests per client IP
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			log.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
			http.Error(w, ErrTooManyRequests, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStudyMode hides the study endpoints when study mode is switched off
func (m *Middleware) RequireStudyMode(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.studyEnabled {
			m.errors.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StudyEnabled reports whether study mode is available
func (m *Middleware) StudyEnabled() bool {
	return m.studyEnabled
}

// CSRFToken returns the CSRF token for the request's visitor
func (m *Middleware) CSRFToken(r *http.Request) string {
	token, err := m.csrf.GenerateToken(VisitorID(r))
	if err != nil {
		return ""
	}
	return token
}

// AddFlash queues a message for the next rendered page. Call before
// writing the response.
func (m *Middleware) AddFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	session := sessionFromContext(r.Context())
	if session == nil {
		return
	}
	session.Flashes = append(session.Flashes, security.Flash{Kind: kind, Message: message})
	m.saveSession(w, r, *session)
}

// TakeFlashes returns the queued messages and clears them from the session
func (m *Middleware) TakeFlashes(w http.ResponseWriter, r *http.Request) []security.Flash {
	session := sessionFromContext(r.Context())
	if session == nil || len(session.Flashes) == 0 {
		return nil
	}
	flashes := session.Flashes
	session.Flashes = nil
	m.saveSession(w, r, *session)
	return flashes
}

func (m *Middleware) saveSession(w http.ResponseWriter, r *http.Request, session security.Session) {
	token, err := m.sessions.Encode(session)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode session")
		return
	}
	expires := time.Now().Add(m.sessions.Duration())
	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, token, expires))
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func sessionFromContext(ctx context.Context) *security.Session {
	session, ok := ctx.Value(SessionContextKey).(*security.Session)
	if !ok {
		return nil
	}
	return session
}

// VisitorID returns the visitor ID of the request's session
func VisitorID(r *http.Request) string {
	if session := sessionFromContext(r.Context()); session != nil {
		return session.VisitorID
	}
	return ""
}
