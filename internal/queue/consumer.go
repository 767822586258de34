package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/meeting-room-reservation/internal/logger"
)

// Consumer appends every reservation event to an audit file.
type Consumer struct {
    URL     string
    LogPath string
    Log     *logger.Logger
}

// NewConsumer returns a Consumer writing to dir/reservation.log.
func NewConsumer(url, dir string, log *logger.Logger) *Consumer {
    return &Consumer{URL: url, LogPath: filepath.Join(dir, "reservation.log"), Log: log}
}

// Run connects, consumes and reconnects with exponential backoff until ctx
// is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warn("consumer dial failed", logger.Error(err), logger.F("RETRY_IN", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warn("consume loop ended, reconnecting", logger.Error(err))
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

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warn("set QoS failed", logger.Error(err))
    }
    if err := declare(ch); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
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
            if err := c.Handle(d.Body); err != nil {
                c.Log.Error("handle message failed", logger.Error(err))
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and appends its audit line.
func (c *Consumer) Handle(body []byte) error {
    var ev ReservationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Kind == "" || ev.ReservationID == "" {
        return errors.New("event without kind or reservation_id")
    }
    if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    c.Log.Info("event recorded", logger.Action(ev.Kind), logger.Reservation(ev.ReservationID))
    return nil
}

// FormatLine renders ev as a single audit line in business local time.
func FormatLine(ev ReservationEvent) string {
    var b strings.Builder
    fmt.Fprintf(&b, "[%s] %s | reservation_id=%s | room=%q | user_id=%d | actor_id=%d | slot=%s %s-%s",
        ev.OccurredAt, ev.Kind, ev.ReservationID, roomLabel(ev), ev.UserID, ev.ActorID, ev.LocalDate, ev.LocalStart, ev.LocalEnd)
    if ev.Title != "" {
        fmt.Fprintf(&b, " | title=%q", ev.Title)
    }
    if ev.Reason != nil && *ev.Reason != "" {
        fmt.Fprintf(&b, " | reason=%q", *ev.Reason)
    }
    b.WriteByte('\n')
    return b.String()
}

func roomLabel(ev ReservationEvent) string {
    if ev.RoomName != "" {
        return ev.RoomName
    }
    return ev.RoomID
}
