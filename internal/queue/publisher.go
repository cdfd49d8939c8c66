package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
)

const (
    brokerDialTimeout = 2 * time.Second  // covers TCP connect and the AMQP handshake
    publishTimeout    = 2 * time.Second
    redialBackoff     = 5 * time.Second  // events arriving inside this window after a failed dial are dropped
    outboxSize        = 256
)

var (
    ErrOutboxFull      = errors.New("notification outbox full")
    ErrPublisherClosed = errors.New("notification publisher closed")
)

// Discard drops every event. It is used when notifications are disabled.
type Discard struct{}

func (Discard) MessageSent(context.Context, MessageSentEvent) error { return nil }
func (Discard) MessageRead(context.Context, MessageReadEvent) error { return nil }

// dialBroker opens an AMQP connection whose dial and handshake give up after
// timeout instead of the library's 30 s default.
func dialBroker(url string, timeout time.Duration) (*amqp.Connection, error) {
    return amqp.DialConfig(url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
}

type outgoing struct {
    typ  string
    body []byte
}

// Publisher sends ledger events to a durable RabbitMQ queue. MessageSent and
// MessageRead only enqueue into a bounded outbox; one goroutine owns the
// broker connection and drains it. A slow or dead broker therefore never
// holds up a request, it only costs the events published while it lasts.
type Publisher struct {
    url   string
    queue string

    events chan outgoing
    quit   chan struct{}
    done   chan struct{}
    once   sync.Once

    // owned by run
    conn    *amqp.Connection
    ch      *amqp.Channel
    retryAt time.Time
}

// NewPublisher starts the outbox worker. Call Close to stop it.
func NewPublisher(url, queue string) *Publisher {
    p := &Publisher{
        url:    url,
        queue:  queue,
        events: make(chan outgoing, outboxSize),
        quit:   make(chan struct{}),
        done:   make(chan struct{}),
    }
    go p.run()
    return p
}

func (p *Publisher) MessageSent(_ context.Context, ev MessageSentEvent) error {
    ev.Type = TypeMessageSent
    return p.enqueue(ev.Type, ev)
}

func (p *Publisher) MessageRead(_ context.Context, ev MessageReadEvent) error {
    ev.Type = TypeMessageRead
    return p.enqueue(ev.Type, ev)
}

// enqueue never blocks.
func (p *Publisher) enqueue(typ string, event any) error {
    body, err := json.Marshal(event)
    if err != nil {
        return fmt.Errorf("marshal %s: %w", typ, err)
    }
    select {
    case <-p.quit:
        return ErrPublisherClosed
    default:
    }
    select {
    case p.events <- outgoing{typ: typ, body: body}:
        return nil
    default:
        return fmt.Errorf("%s: %w", typ, ErrOutboxFull)
    }
}

func (p *Publisher) run() {
    defer close(p.done)
    defer p.reset()
    for {
        select {
        case <-p.quit:
            if n := len(p.events); n > 0 {
                logrus.WithField("queue", p.queue).Warnf("notification publisher stopped with %d unsent events", n)
            }
            return
        case ev := <-p.events:
            if err := p.send(ev); err != nil {
                logrus.WithError(err).WithFields(logrus.Fields{"queue": p.queue, "type": ev.typ}).Warn("notification not published")
            }
        }
    }
}

func (p *Publisher) send(ev outgoing) error {
    ch, err := p.channel()
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Type:         ev.typ,
        Timestamp:    time.Now().UTC(),
        Body:         ev.body,
    }
    ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
    defer cancel()
    if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
        p.reset()
        return fmt.Errorf("publish %s: %w", ev.typ, err)
    }
    return nil
}

// channel returns the open channel, dialing and declaring the queue when
// needed. After a failed dial it refuses to redial until redialBackoff has
// passed.
func (p *Publisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    if time.Now().Before(p.retryAt) {
        return nil, errors.New("rabbitmq unavailable; waiting to redial")
    }
    conn, err := dialBroker(p.url, brokerDialTimeout)
    if err != nil {
        p.retryAt = time.Now().Add(redialBackoff)
        return nil, fmt.Errorf("rabbitmq dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        p.retryAt = time.Now().Add(redialBackoff)
        return nil, fmt.Errorf("rabbitmq channel: %w", err)
    }
    // Durable so events survive broker restarts.
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        p.retryAt = time.Now().Add(redialBackoff)
        return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    logrus.WithField("queue", p.queue).Debug("notification publisher connected")
    return ch, nil
}

func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.ch, p.conn = nil, nil
}

// Close stops the worker and releases the broker connection. Events still
// in the outbox are dropped.
func (p *Publisher) Close() error {
    p.once.Do(func() { close(p.quit) })
    <-p.done
    return nil
}
