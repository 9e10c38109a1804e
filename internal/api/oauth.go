package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yko79135/lessonplangenerator/internal/gdocs"
	"github.com/yko79135/lessonplangenerator/internal/platform/cache"
)

const (
	sessionCookie = "lp_session"
	stateTTL      = 10 * time.Minute
	tokenTTL      = 30 * 24 * time.Hour
)

func stateKey(state string) string   { return "oauth:state:" + state }
func tokenKey(session string) string { return "oauth:token:" + session }

func sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// ensureSession returns the browser session id, issuing a cookie when missing.
func ensureSession(w http.ResponseWriter, r *http.Request) (string, error) {
	if id := sessionID(r); id != "" {
		return id, nil
	}
	id, err := gdocs.NewState()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(tokenTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// sessionToken returns the authorized_user JSON saved for this browser, if any.
func (s *Server) sessionToken(r *http.Request) string {
	id := sessionID(r)
	if id == "" {
		return ""
	}
	b, err := s.cache.Get(r.Context(), tokenKey(id))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			slog.Warn("reading oauth session token failed", "error", err)
		}
		return ""
	}
	return string(b)
}

func (s *Server) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	if s.oauth == nil {
		writeErr(w, http.StatusServiceUnavailable, gdocs.ErrNoOAuthClient)
		return
	}
	session, err := ensureSession(w, r)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	state, err := gdocs.NewState()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.cache.Set(r.Context(), stateKey(state), []byte(session), stateTTL); err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("saving oauth state: %w", err))
		return
	}
	http.Redirect(w, r, s.oauth.AuthURL(state), http.StatusFound)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauth == nil {
		writeErr(w, http.StatusServiceUnavailable, gdocs.ErrNoOAuthClient)
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("google authorization failed: %s", e))
		return
	}
	state, code := q.Get("state"), q.Get("code")
	if state == "" || code == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("state and code are required"))
		return
	}

	ctx := r.Context()
	session, err := s.cache.Get(ctx, stateKey(state))
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("unknown or expired oauth state"))
		return
	}
	_ = s.cache.Delete(ctx, stateKey(state))

	// The callback must come from the browser that started the flow.
	if cookie := sessionID(r); cookie == "" || cookie != string(session) {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("oauth state does not belong to this session"))
		return
	}

	creds, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	if err := s.cache.Set(ctx, tokenKey(string(session)), creds, tokenTTL); err != nil {
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("saving oauth token: %w", err))
		return
	}

	slog.Info("google account connected")
	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}
