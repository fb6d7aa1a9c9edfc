// Package auth проверяет учётные данные администратора и ведёт его сессии.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

// ErrCredentialNotFound — для email нет учётной записи.
var ErrCredentialNotFound = errors.New("credential not found")

// Credentials — данные формы входа.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CredentialStore отдаёт bcrypt-хеш пароля по email.
type CredentialStore interface {
	PasswordHash(ctx context.Context, email string) ([]byte, error)
}

// StaticCredentialStore хранит учётные записи из конфигурации.
type StaticCredentialStore struct {
	hashes map[string][]byte
}

// NewStaticCredentialStore создаёт хранилище с одной учётной записью.
func NewStaticCredentialStore(email string, passwordHash []byte) (*StaticCredentialStore, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, domain.NewValidationError("email", "is required")
	}
	if _, err := bcrypt.Cost(passwordHash); err != nil {
		return nil, fmt.Errorf("admin password hash: %w", err)
	}
	return &StaticCredentialStore{hashes: map[string][]byte{email: passwordHash}}, nil
}

// NewStaticCredentialStoreFromPassword хеширует открытый пароль при старте.
func NewStaticCredentialStoreFromPassword(email, password string) (*StaticCredentialStore, error) {
	if password == "" {
		return nil, domain.NewValidationError("password", "is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return NewStaticCredentialStore(email, hash)
}

// PasswordHash реализует CredentialStore.
func (s *StaticCredentialStore) PasswordHash(_ context.Context, email string) ([]byte, error) {
	hash, ok := s.hashes[normalizeEmail(email)]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return hash, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
