package httpapi

import (
	"net/http"

	"github.com/Dasieloski/dasieloski-store/internal/auth"
	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}
	session, err := s.auth.Authenticate(r.Context(), creds)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// logout закрывает сессию по токену; отсутствие токена не ошибка.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) adminSession(w http.ResponseWriter, r *http.Request) {
	session, ok := domain.AdminSessionFromContext(r.Context())
	if !ok {
		s.writeError(w, r, domain.ErrAdminSessionRequired)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
