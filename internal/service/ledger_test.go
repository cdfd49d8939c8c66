package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_AliceBobConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.register("alice", "Alice", "Liddell")
	f.register("bob", "Bob", "Builder")

	m, err := f.ledger.Create(ctx, "alice", SendInput{ToUsername: "bob", Body: "hi bob"})
	require.NoError(t, err)
	assert.Equal(t, "alice", m.FromUsername)
	assert.Nil(t, m.ReadAt)

	inbox, err := f.dir.MessagesTo(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, m.ID, inbox[0].ID)
	assert.Equal(t, "Alice", inbox[0].FromUser.FirstName)
	assert.Equal(t, "+1-alice", inbox[0].FromUser.Phone)
	assert.Nil(t, inbox[0].ReadAt)

	receipt, err := f.ledger.MarkRead(ctx, "bob", m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, receipt.ID)
	assert.False(t, receipt.ReadAt.Before(m.SentAt))

	d, err := f.ledger.Get(ctx, "alice", m.ID)
	require.NoError(t, err)
	require.NotNil(t, d.ReadAt)
	assert.Equal(t, receipt.ReadAt, *d.ReadAt)
	assert.Equal(t, "bob", d.ToUser.Username)

	_, err = f.ledger.Get(ctx, "bob", m.ID)
	assert.NoError(t, err)
}

func TestLedger_SenderIsCaller(t *testing.T) {
	f := newFixture()
	f.register("alice", "Alice", "Liddell")
	f.register("bob", "Bob", "Builder")

	m, err := f.ledger.Create(context.Background(), "bob", SendInput{ToUsername: "alice", Body: "x"})
	require.NoError(t, err)
	assert.Equal(t, "bob", m.FromUsername)
}

func TestLedger_CreateErrors(t *testing.T) {
	f := newFixture()
	f.register("alice", "Alice", "Liddell")
	ctx := context.Background()

	_, err := f.ledger.Create(ctx, "alice", SendInput{ToUsername: "ghost", Body: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "recipient ghost not found", err.Error())

	_, err = f.ledger.Create(ctx, "alice", SendInput{ToUsername: " ", Body: ""})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"to_username", "body"}, verr.Fields)

	_, err = f.ledger.Create(ctx, "alice", SendInput{ToUsername: "alice", Body: strings.Repeat("a", maxBodyLen+1)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"body"}, verr.Fields)

	_, err = f.ledger.Create(ctx, "", SendInput{ToUsername: "alice", Body: "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Empty(t, f.messages.rows)
	assert.Empty(t, f.notifier.sent)
}

func TestLedger_SendToSelf(t *testing.T) {
	f := newFixture()
	f.register("alice", "Alice", "Liddell")

	m, err := f.ledger.Create(context.Background(), "alice", SendInput{ToUsername: "alice", Body: "note to self"})
	require.NoError(t, err)

	_, err = f.ledger.MarkRead(context.Background(), "alice", m.ID)
	assert.NoError(t, err)
}

func TestLedger_GetForbiddenForThirdParty(t *testing.T) {
	f := newFixture()
	for _, u := range []string{"alice", "bob", "carol"} {
		f.register(u, strings.ToUpper(u[:1])+u[1:], "X")
	}
	m, err := f.ledger.Create(context.Background(), "alice", SendInput{ToUsername: "bob", Body: "secret"})
	require.NoError(t, err)

	_, err = f.ledger.Get(context.Background(), "carol", m.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLedger_GetUnknownMessage(t *testing.T) {
	f := newFixture()

	_, err := f.ledger.Get(context.Background(), "alice", 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "message 99 not found", err.Error())

	_, err = f.ledger.MarkRead(context.Background(), "alice", 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLedger_MarkReadOnlyRecipientOnlyOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.register("alice", "Alice", "Liddell")
	f.register("bob", "Bob", "Builder")
	f.register("carol", "Carol", "Danvers")
	m, err := f.ledger.Create(ctx, "alice", SendInput{ToUsername: "bob", Body: "hi"})
	require.NoError(t, err)

	_, err = f.ledger.MarkRead(ctx, "alice", m.ID)
	assert.ErrorIs(t, err, ErrForbidden, "sender cannot mark read")
	_, err = f.ledger.MarkRead(ctx, "carol", m.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	first, err := f.ledger.MarkRead(ctx, "bob", m.ID)
	require.NoError(t, err)

	_, err = f.ledger.MarkRead(ctx, "bob", m.ID)
	assert.ErrorIs(t, err, ErrAlreadyRead)

	d, err := f.ledger.Get(ctx, "bob", m.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ReadAt, *d.ReadAt, "read_at never changes once set")
}

func TestLedger_MarkReadNeverBeforeSent(t *testing.T) {
	users := newMemUsers()
	messages := newMemMessages(users)
	creds := NewCredentialStore(users, testCost)
	_, err := creds.Register(context.Background(), RegisterInput{Username: "a", Password: "p", FirstName: "A", LastName: "A", Phone: "1"})
	require.NoError(t, err)
	_, err = creds.Register(context.Background(), RegisterInput{Username: "b", Password: "p", FirstName: "B", LastName: "B", Phone: "1"})
	require.NoError(t, err)

	// the clock steps backwards between send and read
	clock := stepClock(t0, -time.Minute)
	l := NewLedger(users, messages, nil).WithClock(clock)
	m, err := l.Create(context.Background(), "a", SendInput{ToUsername: "b", Body: "x"})
	require.NoError(t, err)

	r, err := l.MarkRead(context.Background(), "b", m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.SentAt, r.ReadAt)
}

func TestLedger_PublishesEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.register("alice", "Alice", "Liddell")
	f.register("bob", "Bob", "Builder")

	m, err := f.ledger.Create(ctx, "alice", SendInput{ToUsername: "bob", Body: "hi"})
	require.NoError(t, err)
	r, err := f.ledger.MarkRead(ctx, "bob", m.ID)
	require.NoError(t, err)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, m.ID, f.notifier.sent[0].MessageID)
	assert.Equal(t, "alice", f.notifier.sent[0].FromUsername)
	assert.Equal(t, "bob", f.notifier.sent[0].ToUsername)
	assert.Equal(t, m.SentAt, f.notifier.sent[0].SentAt)

	require.Len(t, f.notifier.read, 1)
	assert.Equal(t, "alice", f.notifier.read[0].FromUsername)
	assert.Equal(t, "bob", f.notifier.read[0].Reader)
	assert.Equal(t, r.ReadAt, f.notifier.read[0].ReadAt)
}

func TestLedger_NotifierFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("broker down")
	f.register("alice", "Alice", "Liddell")
	f.register("bob", "Bob", "Builder")

	m, err := f.ledger.Create(context.Background(), "alice", SendInput{ToUsername: "bob", Body: "hi"})
	require.NoError(t, err)
	_, err = f.ledger.MarkRead(context.Background(), "bob", m.ID)
	assert.NoError(t, err)
	assert.Len(t, f.messages.rows, 1)
}

func TestLedger_IDsIncrease(t *testing.T) {
	f := newFixture()
	f.register("alice", "Alice", "Liddell")

	var last uint64
	for i := 0; i < 3; i++ {
		m, err := f.ledger.Create(context.Background(), "alice", SendInput{ToUsername: "alice", Body: "n"})
		require.NoError(t, err)
		assert.Greater(t, m.ID, last)
		last = m.ID
	}
}
