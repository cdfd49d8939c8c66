package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/messagely/internal/model"
	"github.com/iliyamo/messagely/internal/queue"
	"github.com/iliyamo/messagely/internal/repository"
)

const maxBodyLen = 65535 // TEXT column

// SendInput is the validated shape of a send request. The sender is never
// part of it: the ledger always uses the authenticated caller.
type SendInput struct {
	ToUsername string
	Body       string
}

func (in *SendInput) Validate() error {
	in.ToUsername = strings.TrimSpace(in.ToUsername)
	if err := required(
		[2]string{"to_username", in.ToUsername},
		[2]string{"body", in.Body},
	); err != nil {
		return err
	}
	if len(in.Body) > maxBodyLen {
		return &ValidationError{Fields: []string{"body"}, Reason: fmt.Sprintf("must be at most %d bytes", maxBodyLen)}
	}
	return nil
}

// Ledger owns message creation, retrieval and the read transition, and
// enforces who may do each.
type Ledger struct {
	users    UserStore
	messages MessageStore
	notifier Notifier
	clock    Clock
}

func NewLedger(users UserStore, messages MessageStore, notifier Notifier) *Ledger {
	if users == nil || messages == nil {
		panic("nil store passed to NewLedger")
	}
	if notifier == nil {
		notifier = queue.Discard{}
	}
	return &Ledger{users: users, messages: messages, notifier: notifier, clock: utcNow}
}

// WithClock replaces the time source.
func (l *Ledger) WithClock(c Clock) *Ledger {
	l.clock = c
	return l
}

// Create stores a message from caller to in.ToUsername.
func (l *Ledger) Create(ctx context.Context, caller string, in SendInput) (model.Message, error) {
	if caller == "" {
		return model.Message{}, ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return model.Message{}, err
	}
	ok, err := l.users.Exists(ctx, in.ToUsername)
	if err != nil {
		return model.Message{}, err
	}
	if !ok {
		return model.Message{}, fmt.Errorf("recipient %s %w", in.ToUsername, ErrNotFound)
	}

	m, err := l.messages.Create(ctx, caller, in.ToUsername, in.Body, l.clock.now())
	if err != nil {
		if errors.Is(err, repository.ErrUnknownUser) {
			return model.Message{}, fmt.Errorf("recipient %s %w", in.ToUsername, ErrNotFound)
		}
		return model.Message{}, err
	}

	logCtx := logrus.WithFields(logrus.Fields{"message_id": m.ID, "from": m.FromUsername, "to": m.ToUsername})
	logCtx.Debug("message created")
	if err := l.notifier.MessageSent(ctx, queue.MessageSentEvent{
		MessageID:    m.ID,
		FromUsername: m.FromUsername,
		ToUsername:   m.ToUsername,
		SentAt:       m.SentAt,
	}); err != nil {
		logCtx.WithError(err).Warn("publish message.sent failed")
	}
	return m, nil
}

// Get returns a message to its sender or recipient.
func (l *Ledger) Get(ctx context.Context, caller string, id uint64) (model.MessageDetail, error) {
	d, err := l.load(ctx, id)
	if err != nil {
		return model.MessageDetail{}, err
	}
	if !d.IsParticipant(caller) {
		logrus.WithFields(logrus.Fields{"message_id": id, "caller": caller}).Info("message access denied")
		return model.MessageDetail{}, ErrForbidden
	}
	return d, nil
}

// MarkRead sets read_at once, and only for the recipient.
func (l *Ledger) MarkRead(ctx context.Context, caller string, id uint64) (model.ReadReceipt, error) {
	d, err := l.load(ctx, id)
	if err != nil {
		return model.ReadReceipt{}, err
	}
	if d.ToUser.Username != caller {
		logrus.WithFields(logrus.Fields{"message_id": id, "caller": caller}).Info("mark read denied")
		return model.ReadReceipt{}, ErrForbidden
	}
	if d.ReadAt != nil {
		return model.ReadReceipt{}, ErrAlreadyRead
	}

	at := l.clock.now()
	if at.Before(d.SentAt) {
		at = d.SentAt
	}
	if err := l.messages.MarkRead(ctx, id, at); err != nil {
		if errors.Is(err, repository.ErrAlreadyRead) {
			return model.ReadReceipt{}, ErrAlreadyRead
		}
		return model.ReadReceipt{}, err
	}

	if err := l.notifier.MessageRead(ctx, queue.MessageReadEvent{
		MessageID:    id,
		FromUsername: d.FromUser.Username,
		Reader:       caller,
		ReadAt:       at,
	}); err != nil {
		logrus.WithError(err).WithField("message_id", id).Warn("publish message.read failed")
	}
	return model.ReadReceipt{ID: id, ReadAt: at}, nil
}

func (l *Ledger) load(ctx context.Context, id uint64) (model.MessageDetail, error) {
	d, err := l.messages.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.MessageDetail{}, fmt.Errorf("message %d %w", id, ErrNotFound)
		}
		return model.MessageDetail{}, err
	}
	return d, nil
}
