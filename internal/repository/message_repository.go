package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/messagely/internal/model"
)

// MessageRepo provides data access to the messages table. Views that expand
// sender/recipient into directory records join users in the same query.
type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

const detailSelect = `SELECT m.id, m.body, m.sent_at, m.read_at,
       f.username, f.first_name, f.last_name, f.phone,
       t.username, t.first_name, t.last_name, t.phone
  FROM messages m
  JOIN users f ON f.username = m.from_username
  JOIN users t ON t.username = m.to_username`

// Create inserts a message and returns it with its generated id.
func (r *MessageRepo) Create(ctx context.Context, from, to, body string, sentAt time.Time) (model.Message, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO messages (from_username, to_username, body, sent_at) VALUES (?,?,?,?)",
		from, to, body, sentAt)
	if err != nil {
		if isMySQLError(err, errNoReferencedRow, errNoReferencedRowOld) {
			return model.Message{}, ErrUnknownUser
		}
		return model.Message{}, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return model.Message{
		ID:           uint64(id),
		FromUsername: from,
		ToUsername:   to,
		Body:         body,
		SentAt:       sentAt,
	}, nil
}

// GetDetail fetches a message with both users expanded.
func (r *MessageRepo) GetDetail(ctx context.Context, id uint64) (model.MessageDetail, error) {
	var (
		d      model.MessageDetail
		readAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, detailSelect+" WHERE m.id = ? LIMIT 1", id).Scan(
		&d.ID, &d.Body, &d.SentAt, &readAt,
		&d.FromUser.Username, &d.FromUser.FirstName, &d.FromUser.LastName, &d.FromUser.Phone,
		&d.ToUser.Username, &d.ToUser.FirstName, &d.ToUser.LastName, &d.ToUser.Phone,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MessageDetail{}, ErrNotFound
	}
	if err != nil {
		return model.MessageDetail{}, fmt.Errorf("select message: %w", err)
	}
	d.ReadAt = nullTime(readAt)
	return d, nil
}

// MarkRead stamps read_at only while it is still NULL. ErrAlreadyRead is
// returned when no row matched; callers check existence beforehand.
func (r *MessageRepo) MarkRead(ctx context.Context, id uint64, at time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE messages SET read_at=? WHERE id=? AND read_at IS NULL", at, id)
	if err != nil {
		return fmt.Errorf("update read_at: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update read_at: %w", err)
	}
	if n == 0 {
		return ErrAlreadyRead
	}
	return nil
}

// ListFrom returns the outbox of username, recipients expanded.
func (r *MessageRepo) ListFrom(ctx context.Context, username string) ([]model.SentMessage, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT m.id, m.body, m.sent_at, m.read_at,
       u.username, u.first_name, u.last_name, u.phone
  FROM messages m
  JOIN users u ON u.username = m.to_username
 WHERE m.from_username = ?
 ORDER BY m.sent_at, m.id`, username)
	if err != nil {
		return nil, fmt.Errorf("list sent messages: %w", err)
	}
	defer rows.Close()
	out := []model.SentMessage{}
	for rows.Next() {
		var (
			m      model.SentMessage
			readAt sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &readAt,
			&m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone); err != nil {
			return nil, fmt.Errorf("scan sent message: %w", err)
		}
		m.ReadAt = nullTime(readAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sent messages: %w", err)
	}
	return out, nil
}

// ListTo returns the inbox of username, senders expanded.
func (r *MessageRepo) ListTo(ctx context.Context, username string) ([]model.ReceivedMessage, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT m.id, m.body, m.sent_at, m.read_at,
       u.username, u.first_name, u.last_name, u.phone
  FROM messages m
  JOIN users u ON u.username = m.from_username
 WHERE m.to_username = ?
 ORDER BY m.sent_at, m.id`, username)
	if err != nil {
		return nil, fmt.Errorf("list received messages: %w", err)
	}
	defer rows.Close()
	out := []model.ReceivedMessage{}
	for rows.Next() {
		var (
			m      model.ReceivedMessage
			readAt sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &readAt,
			&m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone); err != nil {
			return nil, fmt.Errorf("scan received message: %w", err)
		}
		m.ReadAt = nullTime(readAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list received messages: %w", err)
	}
	return out, nil
}
