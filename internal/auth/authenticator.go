package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

const defaultSessionTTL = 12 * time.Hour

// Authenticator выдаёт и проверяет токены административной сессии.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (domain.AdminSession, error)
	Verify(ctx context.Context, token string) (domain.AdminSession, error)
	Logout(ctx context.Context, token string) error
}

// SessionAuthenticator хранит административные сессии в слоте "admin" хранилища сессий;
// ключом сессии служит сам токен.
type SessionAuthenticator struct {
	credentials CredentialStore
	sessions    domain.SessionStore
	ttl         time.Duration
	now         func() time.Time
	newToken    func() string
	logger      *log.Entry
}

// Option настраивает SessionAuthenticator.
type Option func(*SessionAuthenticator)

// WithSessionTTL задаёт срок жизни токена.
func WithSessionTTL(ttl time.Duration) Option {
	return func(a *SessionAuthenticator) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(a *SessionAuthenticator) {
		a.now = now
	}
}

// WithTokenGenerator подменяет генератор токенов.
func WithTokenGenerator(gen func() string) Option {
	return func(a *SessionAuthenticator) {
		a.newToken = gen
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(a *SessionAuthenticator) {
		a.logger = logger
	}
}

// NewSessionAuthenticator создаёт Authenticator поверх хранилища сессий.
func NewSessionAuthenticator(credentials CredentialStore, sessions domain.SessionStore, opts ...Option) *SessionAuthenticator {
	a := &SessionAuthenticator{
		credentials: credentials,
		sessions:    sessions,
		ttl:         defaultSessionTTL,
		now:         func() time.Time { return time.Now().UTC() },
		newToken:    func() string { return uuid.NewString() },
		logger:      log.WithField("component", "auth"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate сверяет пароль с bcrypt-хешем и открывает новую сессию.
// Неизвестный email и неверный пароль неразличимы: оба дают ErrInvalidCredentials.
func (a *SessionAuthenticator) Authenticate(ctx context.Context, creds Credentials) (domain.AdminSession, error) {
	email := normalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return domain.AdminSession{}, domain.ErrInvalidCredentials
	}

	hash, err := a.credentials.PasswordHash(ctx, email)
	if errors.Is(err, ErrCredentialNotFound) {
		a.logger.WithField("email", email).Warn("admin login for unknown email")
		return domain.AdminSession{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.AdminSession{}, fmt.Errorf("load credentials: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)); err != nil {
		a.logger.WithField("email", email).Warn("admin login with wrong password")
		return domain.AdminSession{}, domain.ErrInvalidCredentials
	}

	session := domain.AdminSession{
		Token:     a.newToken(),
		Email:     email,
		ExpiresAt: a.now().Add(a.ttl),
	}
	data, err := json.Marshal(session)
	if err != nil {
		return domain.AdminSession{}, fmt.Errorf("encode admin session: %w", err)
	}
	if err := a.sessions.Save(ctx, session.Token, domain.SlotAdmin, data, a.ttl); err != nil {
		return domain.AdminSession{}, fmt.Errorf("save admin session: %w", err)
	}

	a.logger.WithField("email", email).Info("admin logged in")
	return session, nil
}

// Verify возвращает сессию по токену или ErrAdminSessionRequired.
func (a *SessionAuthenticator) Verify(ctx context.Context, token string) (domain.AdminSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.AdminSession{}, domain.ErrAdminSessionRequired
	}

	data, err := a.sessions.Load(ctx, token, domain.SlotAdmin)
	if errors.Is(err, domain.ErrSlotEmpty) {
		return domain.AdminSession{}, domain.ErrAdminSessionRequired
	}
	if err != nil {
		return domain.AdminSession{}, fmt.Errorf("load admin session: %w", err)
	}

	var session domain.AdminSession
	if err := json.Unmarshal(data, &session); err != nil {
		return domain.AdminSession{}, fmt.Errorf("decode admin session: %w", err)
	}
	if !a.now().Before(session.ExpiresAt) {
		return domain.AdminSession{}, domain.ErrAdminSessionRequired
	}
	return session, nil
}

// Logout удаляет сессию; повторный выход не ошибка.
func (a *SessionAuthenticator) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if err := a.sessions.Delete(ctx, token, domain.SlotAdmin); err != nil {
		return fmt.Errorf("delete admin session: %w", err)
	}
	return nil
}
