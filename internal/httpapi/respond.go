package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/Dasieloski/dasieloski-store/internal/checkout"
	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

const maxBodyBytes = 1 << 20

// Коды ошибок в поле code ответа.
const (
	CodeInvalidJSON           = "invalid_json"
	CodeValidation            = "validation_error"
	CodeNotFound              = "not_found"
	CodeConflict              = "conflict"
	CodeUnauthorized          = "unauthorized"
	CodeSessionRequired       = "session_required"
	CodeIdempotencyConflict   = "idempotency_conflict"
	CodeIdempotencyInProgress = "idempotency_in_progress"
	CodeDispatchFailed        = "dispatch_failed"
	CodeInternal              = "internal_error"
)

// ErrorResponse — тело любого ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// MessageResponse — подтверждение операции без собственного тела.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).WithField("component", "http").Warn("failed to encode response")
	}
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// statusFor сопоставляет класс ошибки со статусом ответа и кодом.
func statusFor(err error) (int, string) {
	switch {
	case domain.IsIdempotencyConflict(err):
		return http.StatusConflict, CodeIdempotencyConflict
	case errors.Is(err, domain.ErrSessionRequired):
		return http.StatusBadRequest, CodeSessionRequired
	case domain.IsValidation(err):
		return http.StatusBadRequest, CodeValidation
	case domain.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound
	case domain.IsConflict(err):
		return http.StatusConflict, CodeConflict
	case domain.IsUnauthorized(err):
		return http.StatusUnauthorized, CodeUnauthorized
	case errors.Is(err, checkout.ErrDispatch):
		return http.StatusBadGateway, CodeDispatchFailed
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError пишет ошибку в формате {error, code}. Текст внутренних ошибок наружу не уходит.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	entry := s.logger.WithError(err).WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})

	message := err.Error()
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
		if status == http.StatusInternalServerError {
			message = "internal server error"
		}
	} else {
		entry.Info("request rejected")
	}
	writeErrorCode(w, status, code, message)
}

// decodeJSON читает тело запроса в dst; пустое тело считается ошибкой.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		message := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			message = "request body is required"
		}
		writeErrorCode(w, http.StatusBadRequest, CodeInvalidJSON, message)
		return false
	}
	return true
}
