package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionCookieName = "NIHONGO_WEB_SESSION"
	sessionLifetime   = 30 * 24 * time.Hour
)

// Alert kinds rendered by the alert modal.
const (
	AlertSuccess = "success"
	AlertError   = "error"
)

// Alert is a one-shot message shown on the next render.
type Alert struct {
	Type    string `json:"type"`
	Message string `json:"msg"`
}

// IsError reports whether the alert describes a failure.
func (a *Alert) IsError() bool { return a != nil && a.Type == AlertError }

// SessionData is the signed cookie payload: locale, CSRF token, the pending
// flash alert, and the email kept after a failed form post.
type SessionData struct {
	ID        string    `json:"id"`
	Locale    string    `json:"locale,omitempty"`
	CSRFToken string    `json:"csrf,omitempty"`
	Flash     *Alert    `json:"flash,omitempty"`
	FormEmail string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// internal dirty flag; not serialized
	dirty bool `json:"-"`
}

// Sessions signs and verifies the session cookie.
type Sessions struct {
	key    []byte
	secure bool
}

// NewSessions builds a session codec. An empty key yields a process-ephemeral one,
// which is only acceptable outside production (config validation enforces that).
func NewSessions(signingKey string, secure bool, logger *zap.Logger) *Sessions {
	key := []byte(signingKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			key = []byte("insecure-dev-key-please-set-NIHONGO_WEB_SESSION_SIGNING_KEY")
		}
		if logger != nil {
			logger.Warn("session: using ephemeral signing key; set NIHONGO_WEB_SESSION_SIGNING_KEY for production")
		}
	}
	return &Sessions{key: key, secure: secure}
}

// Secure reports whether cookies carry the Secure attribute.
func (s *Sessions) Secure() bool { return s.secure }

// Middleware loads or initializes a session and stores it in request context.
// The cookie is rewritten just before the response header is committed when
// the session changed during the request.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := s.read(r)
		if sd.ID == "" {
			sd.ID = uuid.NewString()
			sd.CreatedAt = time.Now().UTC()
			sd.UpdatedAt = sd.CreatedAt
			sd.CSRFToken = newCSRFToken()
			sd.dirty = true
		}
		ctx := context.WithValue(r.Context(), sessionKey, sd)

		rw := NewResponseRecorder(w)
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				s.write(w, sd)
			}
		})
		next.ServeHTTP(rw, r.WithContext(ctx))
		// nothing written (e.g. HEAD or empty 200): commit now so the cookie lands
		if !rw.Written() {
			rw.WriteHeader(http.StatusOK)
		}
	})
}

// GetSession returns session data from context
func GetSession(r *http.Request) *SessionData {
	if v := r.Context().Value(sessionKey); v != nil {
		if sd, ok := v.(*SessionData); ok {
			return sd
		}
	}
	return &SessionData{}
}

// MarkDirty flags the session for writing at end of request
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

// SetFlash stores an alert for the next render.
func (s *SessionData) SetFlash(kind, message string) {
	s.Flash = &Alert{Type: kind, Message: message}
	s.MarkDirty()
}

// TakeFlash returns and clears the pending alert, if any.
func (s *SessionData) TakeFlash() *Alert {
	if s.Flash == nil {
		return nil
	}
	a := s.Flash
	s.Flash = nil
	s.MarkDirty()
	return a
}

// KeepEmail remembers the submitted address so a failed form can be refilled.
func (s *SessionData) KeepEmail(email string) {
	if s.FormEmail == email {
		return
	}
	s.FormEmail = email
	s.MarkDirty()
}

// TakeEmail returns and clears the remembered address.
func (s *SessionData) TakeEmail() string {
	email := s.FormEmail
	if email != "" {
		s.FormEmail = ""
		s.MarkDirty()
	}
	return email
}

func (s *Sessions) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return mac.Sum(nil)
}

// read parses and verifies the session cookie
func (s *Sessions) read(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 {
		return &SessionData{}, false
	}
	payloadB, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return &SessionData{}, false
	}
	sigB, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return &SessionData{}, false
	}
	if !hmac.Equal(sigB, s.sign(payloadB)) {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := json.Unmarshal(payloadB, &sd); err != nil {
		return &SessionData{}, false
	}
	return &sd, true
}

func (s *Sessions) write(w http.ResponseWriter, sd *SessionData) {
	b, _ := json.Marshal(sd)
	val := base64.RawURLEncoding.EncodeToString(b) + "." + base64.RawURLEncoding.EncodeToString(s.sign(b))
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionLifetime),
	})
}
