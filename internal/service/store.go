package service

import (
	"context"
	"time"

	"github.com/iliyamo/messagely/internal/model"
	"github.com/iliyamo/messagely/internal/queue"
)

// UserStore is the persistence the credential store and the directory need.
// *repository.UserRepo implements it. Lookups match usernames exactly;
// Create persists LastLoginAt along with the row.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	PasswordHash(ctx context.Context, username string) (string, error)
	TouchLogin(ctx context.Context, username string, at time.Time) (bool, error)
	All(ctx context.Context) ([]model.UserSummary, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	Exists(ctx context.Context, username string) (bool, error)
}

// MessageStore is the persistence behind the ledger and the directory
// listings. *repository.MessageRepo implements it.
type MessageStore interface {
	Create(ctx context.Context, from, to, body string, sentAt time.Time) (model.Message, error)
	GetDetail(ctx context.Context, id uint64) (model.MessageDetail, error)
	MarkRead(ctx context.Context, id uint64, at time.Time) error
	ListFrom(ctx context.Context, username string) ([]model.SentMessage, error)
	ListTo(ctx context.Context, username string) ([]model.ReceivedMessage, error)
}

// Notifier receives ledger events. Delivery is best-effort.
type Notifier interface {
	MessageSent(ctx context.Context, ev queue.MessageSentEvent) error
	MessageRead(ctx context.Context, ev queue.MessageReadEvent) error
}

// Clock returns the current time; injected so tests control timestamps.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// stored timestamps have microsecond precision (DATETIME(6)).
func (c Clock) now() time.Time { return c().UTC().Truncate(time.Microsecond) }
