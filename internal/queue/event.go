// Package queue defines the notification events the message ledger emits
// and the RabbitMQ plumbing that carries them.
package queue

import "time"

// Event type names, carried in the Type field and as the AMQP message type.
const (
    TypeMessageSent = "message.sent"
    TypeMessageRead = "message.read"
)

// MessageSentEvent is published after a message is stored. It carries
// enough for a downstream notifier to alert the recipient without querying
// the database; the body is deliberately left out.
type MessageSentEvent struct {
    Type         string    `json:"type"`
    MessageID    uint64    `json:"message_id"`
    FromUsername string    `json:"from_username"`
    ToUsername   string    `json:"to_username"`
    SentAt       time.Time `json:"sent_at"`
}

// MessageReadEvent is published when the recipient marks a message read,
// so the sender can receive a read receipt.
type MessageReadEvent struct {
    Type         string    `json:"type"`
    MessageID    uint64    `json:"message_id"`
    FromUsername string    `json:"from_username"`
    Reader       string    `json:"reader"`
    ReadAt       time.Time `json:"read_at"`
}
