package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/iliyamo/messagely/internal/model"
	"github.com/iliyamo/messagely/internal/repository"
)

// Directory exposes user records and per-user message views.
type Directory struct {
	users    UserStore
	messages MessageStore
}

func NewDirectory(users UserStore, messages MessageStore) *Directory {
	if users == nil || messages == nil {
		panic("nil store passed to NewDirectory")
	}
	return &Directory{users: users, messages: messages}
}

// ListAll returns every user ordered by last name, first name.
func (d *Directory) ListAll(ctx context.Context) ([]model.UserSummary, error) {
	return d.users.All(ctx)
}

// Get returns one user's detail.
func (d *Directory) Get(ctx context.Context, username string) (model.UserDetail, error) {
	u, err := d.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.UserDetail{}, fmt.Errorf("user %s %w", username, ErrNotFound)
		}
		return model.UserDetail{}, err
	}
	return u.Detail(), nil
}

// MessagesFrom lists what username sent, each recipient expanded.
func (d *Directory) MessagesFrom(ctx context.Context, username string) ([]model.SentMessage, error) {
	if err := d.mustExist(ctx, username); err != nil {
		return nil, err
	}
	return d.messages.ListFrom(ctx, username)
}

// MessagesTo lists what username received, each sender expanded.
func (d *Directory) MessagesTo(ctx context.Context, username string) ([]model.ReceivedMessage, error) {
	if err := d.mustExist(ctx, username); err != nil {
		return nil, err
	}
	return d.messages.ListTo(ctx, username)
}

func (d *Directory) mustExist(ctx context.Context, username string) error {
	ok, err := d.users.Exists(ctx, username)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("user %s %w", username, ErrNotFound)
	}
	return nil
}
