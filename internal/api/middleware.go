package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	SessionCookie = "dashxcel_session"
	SessionHeader = "X-Session-ID"
)

type ctxKey int

const sessionKey ctxKey = iota

// WithSession attaches a session ID to the request, creating a session when
// the client has none or its session expired.
func (h *Handler) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			if c, err := r.Cookie(SessionCookie); err == nil {
				id = c.Value
			}
		}

		if _, err := h.Store.Get(id); id == "" || err != nil {
			id = h.Store.Create().ID
			h.Logger.Debug("Issued new session", zap.String("session_id", id))
		}

		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(h.SessionTTL),
		})
		w.Header().Set(SessionHeader, id)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, id)))
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey).(string)
	return id
}
