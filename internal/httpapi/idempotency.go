package httpapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

// IdempotencyKeyHeader — заголовок, по которому повторный POST получает сохранённый ответ.
const IdempotencyKeyHeader = "Idempotency-Key"

// idempotent сохраняет ответ POST-запроса под ключом Idempotency-Key.
// Повтор с тем же телом получает сохранённый ответ, с другим телом — 409.
// Запросы без заголовка обрабатываются как обычно.
func (s *Server) idempotent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
		if s.idempotency == nil || key == "" {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeErrorCode(w, http.StatusBadRequest, CodeInvalidJSON, "request body is too large")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		record, err := s.idempotency.CreateProcessing(r.Context(), key, requestHash(r, body), s.now().Add(s.idempotencyTTL))
		if err != nil {
			s.replayIdempotent(w, r, err, record)
			return
		}

		rec := &recordingWriter{ResponseWriter: w}
		finished := false
		defer func() {
			if !finished {
				s.abandonIdempotent(r.Context(), key)
			}
		}()
		next.ServeHTTP(rec, r)
		finished = true

		status := rec.statusCode()
		if status < http.StatusBadRequest {
			err = s.idempotency.MarkDone(r.Context(), key, status, rec.body.Bytes())
		} else {
			err = s.idempotency.MarkFailed(r.Context(), key, status, rec.body.Bytes())
		}
		if err != nil {
			s.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent response")
		}
	})
}

// abandonIdempotent закрывает ключ ответом 500, если обработчик не завершился
// (паника). Иначе ключ остался бы в processing до истечения TTL.
func (s *Server) abandonIdempotent(ctx context.Context, key string) {
	body, _ := json.Marshal(ErrorResponse{Error: "internal server error", Code: CodeInternal})
	if err := s.idempotency.MarkFailed(context.WithoutCancel(ctx), key, http.StatusInternalServerError, body); err != nil {
		s.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to release idempotency key after panic")
	}
}

func (s *Server) replayIdempotent(w http.ResponseWriter, r *http.Request, createErr error, record domain.IdempotencyRecord) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		writeErrorCode(w, http.StatusConflict, CodeIdempotencyConflict, "idempotency key is already used with different request payload")
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			if record.HTTPStatus == 0 {
				writeErrorCode(w, http.StatusInternalServerError, CodeInternal, "idempotency cache is empty")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(record.HTTPStatus)
			_, _ = w.Write(record.ResponseBody)
		case domain.IdempotencyStatusProcessing:
			writeErrorCode(w, http.StatusConflict, CodeIdempotencyInProgress, "request with the same idempotency key is already processing")
		default:
			writeErrorCode(w, http.StatusInternalServerError, CodeInternal, "unknown idempotency record status")
		}
	default:
		s.writeError(w, r, createErr)
	}
}

// requestHash привязывает ключ к методу, маршруту и телу запроса.
func requestHash(r *http.Request, body []byte) string {
	h := sha256.New()
	_, _ = io.WriteString(h, r.Method)
	_, _ = io.WriteString(h, " ")
	_, _ = io.WriteString(h, r.URL.Path)
	_, _ = io.WriteString(h, ":")
	_, _ = h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// recordingWriter дублирует ответ в буфер для кеша идемпотентности.
type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body.Write(p)
	return w.ResponseWriter.Write(p)
}

func (w *recordingWriter) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}
