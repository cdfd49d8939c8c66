package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

const notificationLogFile = "notifications.log"

// StartNotificationConsumer connects to RabbitMQ, declares the durable
// notification queue and appends one line per event to
// <logDir>/notifications.log. It reconnects with exponential backoff and
// returns only when ctx is cancelled. Undecodable events are rejected
// without requeue so they cannot loop.
func StartNotificationConsumer(ctx context.Context, url, queue, logDir string) error {
    log := logrus.WithField("queue", queue)
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := dialBroker(url, brokerDialTimeout)
        if err != nil {
            log.WithError(err).Warnf("notification consumer: dial failed; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, queue, logDir)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.WithError(err).Warn("notification consumer: consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue, logDir string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logrus.WithError(err).Warn("notification consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(d.Body, logDir); err != nil {
                logrus.WithError(err).Warn("notification consumer: handle message failed")
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(body []byte, logDir string) error {
    line, err := FormatNotification(body)
    if err != nil {
        return err
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", logDir, err)
    }
    f, err := os.OpenFile(filepath.Join(logDir, notificationLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line + "\n"); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatNotification renders an encoded event as a single log line.
func FormatNotification(body []byte) (string, error) {
    var head struct {
        Type string `json:"type"`
    }
    if err := json.Unmarshal(body, &head); err != nil {
        return "", fmt.Errorf("unmarshal: %w", err)
    }
    switch head.Type {
    case TypeMessageSent:
        var ev MessageSentEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal %s: %w", head.Type, err)
        }
        return fmt.Sprintf("[%s] New message | message_id=%d | from=%s | to=%s",
            ev.SentAt.UTC().Format(time.RFC3339), ev.MessageID, ev.FromUsername, ev.ToUsername), nil
    case TypeMessageRead:
        var ev MessageReadEvent
        if err := json.Unmarshal(body, &ev); err != nil {
            return "", fmt.Errorf("unmarshal %s: %w", head.Type, err)
        }
        return fmt.Sprintf("[%s] Message read | message_id=%d | sender=%s | reader=%s",
            ev.ReadAt.UTC().Format(time.RFC3339), ev.MessageID, ev.FromUsername, ev.Reader), nil
    default:
        return "", fmt.Errorf("unknown event type %q", head.Type)
    }
}
