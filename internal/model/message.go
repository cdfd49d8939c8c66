package model

import "time"

// Message mirrors the `messages` table. ReadAt stays nil until the
// recipient marks the message read, after which it never changes.
type Message struct {
    ID           uint64     `json:"id"`
    FromUsername string     `json:"from_username"`
    ToUsername   string     `json:"to_username"`
    Body         string     `json:"body"`
    SentAt       time.Time  `json:"sent_at"`
    ReadAt       *time.Time `json:"read_at,omitempty"`
}

// MessageDetail is a message with both ends expanded to directory records.
type MessageDetail struct {
    ID       uint64      `json:"id"`
    Body     string      `json:"body"`
    SentAt   time.Time   `json:"sent_at"`
    ReadAt   *time.Time  `json:"read_at"`
    FromUser UserSummary `json:"from_user"`
    ToUser   UserSummary `json:"to_user"`
}

// SentMessage is an entry of a user's outbox.
type SentMessage struct {
    ID     uint64      `json:"id"`
    ToUser UserSummary `json:"to_user"`
    Body   string      `json:"body"`
    SentAt time.Time   `json:"sent_at"`
    ReadAt *time.Time  `json:"read_at"`
}

// ReceivedMessage is an entry of a user's inbox.
type ReceivedMessage struct {
    ID       uint64      `json:"id"`
    FromUser UserSummary `json:"from_user"`
    Body     string      `json:"body"`
    SentAt   time.Time   `json:"sent_at"`
    ReadAt   *time.Time  `json:"read_at"`
}

// ReadReceipt is returned by mark-read.
type ReadReceipt struct {
    ID     uint64    `json:"id"`
    ReadAt time.Time `json:"read_at"`
}

// IsParticipant reports whether username is the sender or the recipient.
func (m MessageDetail) IsParticipant(username string) bool {
    return m.FromUser.Username == username || m.ToUser.Username == username
}
