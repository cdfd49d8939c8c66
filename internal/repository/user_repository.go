package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/messagely/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user whose password is already hashed. last_login_at is
// written in the same statement so a registration is a single row write.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	var lastLogin sql.NullTime
	if u.LastLoginAt != nil {
		lastLogin = sql.NullTime{Time: *u.LastLoginAt, Valid: true}
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, password, first_name, last_name, phone, join_at, last_login_at) VALUES (?,?,?,?,?,?,?)",
		u.Username, u.Password, u.FirstName, u.LastName, u.Phone, u.JoinAt, lastLogin)
	if err != nil {
		if isMySQLError(err, errDupEntry) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// PasswordHash returns the stored bcrypt hash for username. A row whose
// username differs from the argument in any byte (a case-insensitive
// collation match) counts as not found.
func (r *UserRepo) PasswordHash(ctx context.Context, username string) (string, error) {
	var stored, hash string
	err := r.DB.QueryRowContext(ctx,
		"SELECT username, password FROM users WHERE username=? LIMIT 1", username).Scan(&stored, &hash)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && stored != username) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select password: %w", err)
	}
	return hash, nil
}

// TouchLogin sets last_login_at and reports whether exactly one row matched.
// The DSN enables clientFoundRows so matched rows are counted even when the
// value is unchanged.
func (r *UserRepo) TouchLogin(ctx context.Context, username string, at time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login_at=? WHERE username=?", at, username)
	if err != nil {
		return false, fmt.Errorf("update last_login_at: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update last_login_at: %w", err)
	}
	return n == 1, nil
}

// All lists directory records ordered by last name, then first name.
func (r *UserRepo) All(ctx context.Context) ([]model.UserSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT username, first_name, last_name, phone FROM users ORDER BY last_name, first_name, username")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	out := []model.UserSummary{}
	for rows.Next() {
		var s model.UserSummary
		if err := rows.Scan(&s.Username, &s.FirstName, &s.LastName, &s.Phone); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// GetByUsername fetches a user including timestamps (password left empty).
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var (
		u         model.User
		lastLogin sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT username, first_name, last_name, phone, join_at, last_login_at FROM users WHERE username=? LIMIT 1",
		username).Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone, &u.JoinAt, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && u.Username != username) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("select user: %w", err)
	}
	u.LastLoginAt = nullTime(lastLogin)
	return u, nil
}

// Exists reports whether a user row with this username is present.
func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	var stored string
	err := r.DB.QueryRowContext(ctx,
		"SELECT username FROM users WHERE username=? LIMIT 1", username).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && stored != username) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return true, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
