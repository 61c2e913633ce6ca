package auth

import (
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	SessionName       = "screencast_session"
	AccessLevelKey    = "access_level"
	SessionCreatedKey = "created_at"

	// presenter sessions last one teaching day
	sessionMaxAge = 12 * 60 * 60
)

type SessionManager struct {
	store *sessions.CookieStore
}

func NewSessionManager(secret string) *SessionManager {
	if secret == "" {
		secret = generateSecret()
	}
	return &SessionManager{
		store: sessions.NewCookieStore([]byte(secret)),
	}
}

func generateSecret() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}

// SavePresenterSession marks the requester as the presenter.
func (sm *SessionManager) SavePresenterSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := sm.store.Get(r, SessionName)
	session.Values[AccessLevelKey] = string(AccessPresenter)
	session.Values[SessionCreatedKey] = time.Now().Unix()

	// Determine if we're on HTTPS
	isHTTPS := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"

	session.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   isHTTPS,
	}

	return session.Save(r, w)
}

// GetAccessLevel reads the stored access level from the session cookie.
// Returns AccessViewer if the session is missing or invalid.
func (sm *SessionManager) GetAccessLevel(r *http.Request) AccessLevel {
	session, err := sm.store.Get(r, SessionName)
	if err != nil {
		_, cookieErr := r.Cookie(SessionName)
		if cookieErr == nil {
			slog.Warn("failed to decode session", "error", err, "host", r.Host)
		}
		return AccessViewer
	}

	val, ok := session.Values[AccessLevelKey]
	if !ok {
		return AccessViewer
	}

	str, ok := val.(string)
	if !ok {
		return AccessViewer
	}

	if AccessLevel(str) == AccessPresenter {
		return AccessPresenter
	}
	return AccessViewer
}

func (sm *SessionManager) IsPresenter(r *http.Request) bool {
	return sm.GetAccessLevel(r) == AccessPresenter
}

// GetSessionCreatedAt returns the time the session was created.
// Returns zero time if the session is missing or invalid.
func (sm *SessionManager) GetSessionCreatedAt(r *http.Request) time.Time {
	session, err := sm.store.Get(r, SessionName)
	if err != nil {
		return time.Time{}
	}

	val, ok := session.Values[SessionCreatedKey]
	if !ok {
		return time.Time{}
	}

	unix, ok := val.(int64)
	if !ok {
		return time.Time{}
	}

	return time.Unix(unix, 0)
}

func (sm *SessionManager) ClearSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := sm.store.Get(r, SessionName)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

type AccessLevel string

const (
	AccessViewer    AccessLevel = "viewer"
	AccessPresenter AccessLevel = "presenter"
)
