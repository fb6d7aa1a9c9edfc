package domain

import (
	"context"
	"time"
)

// Типы агрегатов для событий каталога.
const (
	AggregateCategory = "category"
	AggregateProduct  = "product"
	AggregateCurrency = "currency"
)

// OutboxMessage — событие изменения каталога, ожидающее публикации.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// OutboxStats описывает текущий backlog outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OutboxRepository сохраняет события для последующей публикации.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	// PullPending возвращает до limit событий в порядке постановки.
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// OutboxPublisher передаёт событие наружу; должен быть идемпотентным.
type OutboxPublisher interface {
	Publish(ctx context.Context, event OutboxMessage) error
}
