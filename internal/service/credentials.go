package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/messagely/internal/model"
	"github.com/iliyamo/messagely/internal/repository"
	"github.com/iliyamo/messagely/internal/utils"
)

const (
	maxUsernameLen = 64
	maxPasswordLen = 72 // bcrypt ignores anything longer
)

// RegisterInput is the validated shape of a registration request.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Validate trims the profile fields and checks every field is present.
func (in *RegisterInput) Validate() error {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := required(
		[2]string{"username", in.Username},
		[2]string{"password", in.Password},
		[2]string{"first_name", in.FirstName},
		[2]string{"last_name", in.LastName},
		[2]string{"phone", in.Phone},
	); err != nil {
		return err
	}
	if len(in.Username) > maxUsernameLen {
		return &ValidationError{Fields: []string{"username"}, Reason: fmt.Sprintf("must be at most %d characters", maxUsernameLen)}
	}
	if len(in.Password) > maxPasswordLen {
		return &ValidationError{Fields: []string{"password"}, Reason: fmt.Sprintf("must be at most %d bytes", maxPasswordLen)}
	}
	return nil
}

// LoginInput is the shape of a login request. The username is trimmed; the
// password is compared as sent.
type LoginInput struct {
	Username string
	Password string
}

func (in *LoginInput) Validate() error {
	in.Username = strings.TrimSpace(in.Username)
	return required(
		[2]string{"username", in.Username},
		[2]string{"password", in.Password},
	)
}

// CredentialStore registers users, verifies passwords and keeps
// last_login_at current.
type CredentialStore struct {
	users     UserStore
	cost      int
	clock     Clock
	dummyHash string
}

// NewCredentialStore wires the store with the bcrypt work factor used for
// new hashes.
func NewCredentialStore(users UserStore, bcryptCost int) *CredentialStore {
	if users == nil {
		panic("nil UserStore passed to NewCredentialStore")
	}
	s := &CredentialStore{users: users, cost: bcryptCost, clock: utcNow}
	// Unknown usernames are compared against this hash so both failure
	// paths spend the same bcrypt time.
	if h, err := utils.HashPassword("messagely-timing-equalizer", bcryptCost); err == nil {
		s.dummyHash = h
	}
	return s
}

// WithClock replaces the time source.
func (s *CredentialStore) WithClock(c Clock) *CredentialStore {
	s.clock = c
	return s
}

// Register creates the user with last_login_at equal to join_at, so the
// initial login is part of the one insert. The returned user never carries
// the password hash.
func (s *CredentialStore) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	if err := in.Validate(); err != nil {
		return model.User{}, err
	}
	logCtx := logrus.WithField("username", in.Username)

	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		logCtx.WithError(err).Error("hash password during registration")
		return model.User{}, err
	}
	joinAt := s.clock.now()
	u := model.User{
		Username:    in.Username,
		Password:    hash,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Phone:       in.Phone,
		JoinAt:      joinAt,
		LastLoginAt: &joinAt,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			logCtx.Info("registration rejected: username taken")
			return model.User{}, ErrDuplicateUsername
		}
		logCtx.WithError(err).Error("create user")
		return model.User{}, err
	}
	u.Password = ""
	logCtx.Info("user registered")
	return u, nil
}

// Authenticate checks username/password. Unknown users and wrong passwords
// both yield ErrInvalidCredentials; store failures yield a wrapped
// ErrStoreUnavailable so operators can tell an outage from bad input.
func (s *CredentialStore) Authenticate(ctx context.Context, username, password string) error {
	logCtx := logrus.WithField("username", username)

	hash, err := s.users.PasswordHash(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if s.dummyHash != "" {
			utils.VerifyPassword(s.dummyHash, password)
		}
		logCtx.Info("login failed")
		return ErrInvalidCredentials
	case err != nil:
		logCtx.WithError(err).Error("load credentials")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if !utils.VerifyPassword(hash, password) {
		logCtx.Info("login failed")
		return ErrInvalidCredentials
	}

	if _, err := s.UpdateLoginTimestamp(ctx, username); err != nil {
		logCtx.WithError(err).Error("update last_login_at")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	logCtx.Debug("login succeeded")
	return nil
}

// UpdateLoginTimestamp sets last_login_at to now and reports whether the
// user existed.
func (s *CredentialStore) UpdateLoginTimestamp(ctx context.Context, username string) (bool, error) {
	return s.users.TouchLogin(ctx, username, s.clock.now())
}
