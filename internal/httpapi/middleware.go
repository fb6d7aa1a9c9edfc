package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

const (
	// SessionCookieName — cookie сессии покупателя.
	SessionCookieName = "store_session"
	// SessionHeader позволяет клиентам без cookie передавать сессию явно.
	SessionHeader = "X-Session-ID"
)

// requestLogger пишет одну запись на запрос и наблюдает длительность в метриках.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		duration := time.Since(started)
		s.metrics.ObserveHTTPRequest(r.Method, route, status, duration)

		entry := s.logger.WithFields(log.Fields{
			"method":      r.Method,
			"route":       route,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("http request")
			return
		}
		entry.Debug("http request")
	})
}

// routePattern возвращает шаблон маршрута chi, чтобы не плодить метки по id.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// withSession находит сессию покупателя в X-Session-ID или cookie и при отсутствии выдаёт новую.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := sessionIDFromRequest(r)
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(s.sessionTTL.Seconds()),
				HttpOnly: true,
				Secure:   s.secureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(SessionHeader, id)

		ctx := domain.WithSession(r.Context(), domain.Session{ID: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionIDFromRequest(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); validSessionID(id) {
		return id
	}
	if c, err := r.Cookie(SessionCookieName); err == nil && validSessionID(c.Value) {
		return c.Value
	}
	return ""
}

func validSessionID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func sessionID(r *http.Request) string {
	sess, _ := domain.SessionFromContext(r.Context())
	return sess.ID
}

// requireAdmin пропускает запрос только с действующим токеном Authorization: Bearer.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.writeError(w, r, domain.ErrAdminSessionRequired)
			return
		}

		admin, err := s.auth.Verify(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.WithAdminSession(r.Context(), admin)))
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
