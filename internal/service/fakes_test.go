package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/messagely/internal/model"
	"github.com/iliyamo/messagely/internal/queue"
	"github.com/iliyamo/messagely/internal/repository"
	"github.com/iliyamo/messagely/internal/utils"
)

// memUsers behaves like the users table: username is the primary key.
type memUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]model.User{}} }

func (m *memUsers) Create(_ context.Context, u model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Username]; ok {
		return repository.ErrDuplicateUsername
	}
	m.users[u.Username] = u
	return nil
}

func (m *memUsers) PasswordHash(_ context.Context, username string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return "", repository.ErrNotFound
	}
	return u.Password, nil
}

func (m *memUsers) TouchLogin(_ context.Context, username string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return false, nil
	}
	u.LastLoginAt = &at
	m.users[username] = u
	return true, nil
}

func (m *memUsers) All(context.Context) ([]model.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.UserSummary{}
	for _, u := range m.users {
		out = append(out, u.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].Username < out[j].Username
	})
	return out, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	u.Password = ""
	return u, nil
}

func (m *memUsers) Exists(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.users[username]
	return ok, nil
}

func (m *memUsers) summary(username string) model.UserSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[username].Summary()
}

// memMessages behaves like the messages table joined with users.
type memMessages struct {
	mu     sync.Mutex
	users  *memUsers
	rows   []model.Message
	nextID uint64
}

func newMemMessages(users *memUsers) *memMessages { return &memMessages{users: users} }

func (m *memMessages) Create(ctx context.Context, from, to, body string, sentAt time.Time) (model.Message, error) {
	for _, u := range []string{from, to} {
		if ok, _ := m.users.Exists(ctx, u); !ok {
			return model.Message{}, repository.ErrUnknownUser
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	msg := model.Message{ID: m.nextID, FromUsername: from, ToUsername: to, Body: body, SentAt: sentAt}
	m.rows = append(m.rows, msg)
	return msg, nil
}

func (m *memMessages) find(id uint64) (model.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			return r, true
		}
	}
	return model.Message{}, false
}

func (m *memMessages) GetDetail(_ context.Context, id uint64) (model.MessageDetail, error) {
	r, ok := m.find(id)
	if !ok {
		return model.MessageDetail{}, repository.ErrNotFound
	}
	return model.MessageDetail{
		ID: r.ID, Body: r.Body, SentAt: r.SentAt, ReadAt: r.ReadAt,
		FromUser: m.users.summary(r.FromUsername),
		ToUser:   m.users.summary(r.ToUsername),
	}, nil
}

func (m *memMessages) MarkRead(_ context.Context, id uint64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].ReadAt == nil {
			m.rows[i].ReadAt = &at
			return nil
		}
	}
	return repository.ErrAlreadyRead
}

func (m *memMessages) ListFrom(_ context.Context, username string) ([]model.SentMessage, error) {
	m.mu.Lock()
	rows := append([]model.Message(nil), m.rows...)
	m.mu.Unlock()
	out := []model.SentMessage{}
	for _, r := range rows {
		if r.FromUsername == username {
			out = append(out, model.SentMessage{ID: r.ID, ToUser: m.users.summary(r.ToUsername), Body: r.Body, SentAt: r.SentAt, ReadAt: r.ReadAt})
		}
	}
	return out, nil
}

func (m *memMessages) ListTo(_ context.Context, username string) ([]model.ReceivedMessage, error) {
	m.mu.Lock()
	rows := append([]model.Message(nil), m.rows...)
	m.mu.Unlock()
	out := []model.ReceivedMessage{}
	for _, r := range rows {
		if r.ToUsername == username {
			out = append(out, model.ReceivedMessage{ID: r.ID, FromUser: m.users.summary(r.FromUsername), Body: r.Body, SentAt: r.SentAt, ReadAt: r.ReadAt})
		}
	}
	return out, nil
}

// recordingNotifier keeps published events.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []queue.MessageSentEvent
	read []queue.MessageReadEvent
	err  error
}

func (n *recordingNotifier) MessageSent(_ context.Context, ev queue.MessageSentEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, ev)
	return n.err
}

func (n *recordingNotifier) MessageRead(_ context.Context, ev queue.MessageReadEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.read = append(n.read, ev)
	return n.err
}

// mockUsers is a testify mock for failure paths the in-memory store cannot
// produce.
type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, u model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUsers) PasswordHash(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}

func (m *mockUsers) TouchLogin(ctx context.Context, username string, at time.Time) (bool, error) {
	args := m.Called(ctx, username, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) All(ctx context.Context) ([]model.UserSummary, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]model.UserSummary)
	return out, args.Error(1)
}

func (m *mockUsers) GetByUsername(ctx context.Context, username string) (model.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) Exists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

// stepClock returns base, base+step, base+2*step, ...
func stepClock(base time.Time, step time.Duration) Clock {
	var mu sync.Mutex
	next := base
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}

const testCost = 4

func hashForTest(plain string) (string, error) { return utils.HashPassword(plain, testCost) }

var t0 = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	users    *memUsers
	messages *memMessages
	notifier *recordingNotifier
	creds    *CredentialStore
	dir      *Directory
	ledger   *Ledger
}

func newFixture() *fixture {
	users := newMemUsers()
	messages := newMemMessages(users)
	n := &recordingNotifier{}
	clock := stepClock(t0, time.Second)
	return &fixture{
		users:    users,
		messages: messages,
		notifier: n,
		creds:    NewCredentialStore(users, testCost).WithClock(clock),
		dir:      NewDirectory(users, messages),
		ledger:   NewLedger(users, messages, n).WithClock(clock),
	}
}

func (f *fixture) register(username, first, last string) model.User {
	u, err := f.creds.Register(context.Background(), RegisterInput{
		Username: username, Password: username + "-pw", FirstName: first, LastName: last, Phone: "+1-" + username,
	})
	if err != nil {
		panic(err)
	}
	return u
}
