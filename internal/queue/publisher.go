package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/meeting-room-reservation/internal/logger"
)

const dialTimeout = 5 * time.Second

// Publisher sends ReservationEvents to QueueName.  Each call dials the
// broker; reservation writes are infrequent enough that a pooled channel
// is not needed.
type Publisher struct {
    url string
    log *logger.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *logger.Logger) *Publisher {
    return &Publisher{url: url, log: log}
}

// Publish sends ev as a persistent JSON message.  Errors are logged and
// returned; callers treat them as non-fatal.
func (p *Publisher) Publish(ctx context.Context, ev ReservationEvent) error {
    conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
    if err != nil {
        p.log.Warn("rabbitmq dial failed", logger.Action(ev.Kind), logger.Error(err))
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.log.Warn("rabbitmq channel open failed", logger.Action(ev.Kind), logger.Error(err))
        return err
    }
    defer func() { _ = ch.Close() }()

    if err := declare(ch); err != nil {
        p.log.Warn("rabbitmq queue declare failed", logger.Error(err))
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Type:         ev.Kind,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", QueueName, false, false, pub); err != nil {
        p.log.Warn("rabbitmq publish failed", logger.Action(ev.Kind), logger.Reservation(ev.ReservationID), logger.Error(err))
        return err
    }
    return nil
}

// declare creates the durable queue if missing.  Idempotent.
func declare(ch *amqp.Channel) error {
    _, err := ch.QueueDeclare(
        QueueName, // name
        true,      // durable
        false,     // autoDelete
        false,     // exclusive
        false,     // noWait
        nil,       // args
    )
    return err
}
