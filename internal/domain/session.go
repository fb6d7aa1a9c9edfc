package domain

import (
	"context"
	"time"
)

// Слоты сессии.
const (
	// SlotCart хранит корзину покупателя между витриной и оформлением заказа.
	SlotCart = "cart"
	// SlotAdmin хранит административную сессию, ключ — токен.
	SlotAdmin = "admin"
)

// Session — сессия покупателя, передаётся явно через контекст запроса.
type Session struct {
	ID string
}

// AdminSession — результат успешной аутентификации администратора.
type AdminSession struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionStore — долговременные слоты "ключ-значение" в рамках сессии.
type SessionStore interface {
	// Load возвращает содержимое слота или ErrSlotEmpty.
	Load(ctx context.Context, sessionID, slot string) ([]byte, error)
	// Save перезаписывает слот; ttl <= 0 означает "без срока".
	Save(ctx context.Context, sessionID, slot string, data []byte, ttl time.Duration) error
	// Delete очищает слот; отсутствие слота не ошибка.
	Delete(ctx context.Context, sessionID, slot string) error
	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error
}

type sessionCtxKey struct{}

// WithSession кладёт сессию покупателя в контекст.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// SessionFromContext достаёт сессию покупателя из контекста.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionCtxKey{}).(Session)
	if !ok || s.ID == "" {
		return Session{}, false
	}
	return s, true
}

type adminCtxKey struct{}

// WithAdminSession кладёт административную сессию в контекст.
func WithAdminSession(ctx context.Context, s AdminSession) context.Context {
	return context.WithValue(ctx, adminCtxKey{}, s)
}

// AdminSessionFromContext достаёт административную сессию из контекста.
func AdminSessionFromContext(ctx context.Context) (AdminSession, bool) {
	s, ok := ctx.Value(adminCtxKey{}).(AdminSession)
	return s, ok
}
