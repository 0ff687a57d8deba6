// Package queue contains the background consumer that listens to the
// order.placed queue and writes one-line records to an orders log.
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

    "github.com/iliyamo/movie-storefront/internal/logger"
)

// OrderConsumer appends every OrderPlacedEvent to LogPath.
type OrderConsumer struct {
    URL     string
    Queue   string
    LogPath string
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes
// until ctx is cancelled.  Connection failures are retried with
// exponential backoff capped at 30s; a message that cannot be handled is
// rejected without requeue so the loop keeps going.
func (oc OrderConsumer) Run(ctx context.Context) error {
    log := logger.From(ctx).With("component", "order-consumer")
    backoff := time.Second
    for {
        conn, err := amqp.Dial(oc.URL)
        if err != nil {
            log.Warn("failed to dial broker", "err", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = oc.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("consume loop ended; reconnecting", "err", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (oc OrderConsumer) queue() string {
    if oc.Queue == "" {
        return OrderPlacedQueue
    }
    return oc.Queue
}

func (oc OrderConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logger.From(ctx).Warn("order-consumer: set QoS failed", "err", err)
    }
    if _, err := ch.QueueDeclare(oc.queue(), true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.ConsumeWithContext(ctx, oc.queue(), "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := oc.Handle(d.Body); err != nil {
            logger.From(ctx).Error("order-consumer: handle message failed", "err", err)
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// Handle decodes one message and appends its record to the log file.
func (oc OrderConsumer) Handle(body []byte) error {
    var ev OrderPlacedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.TransactionID == "" {
        return errors.New("order event without transaction id")
    }
    if err := os.MkdirAll(filepath.Dir(oc.LogPath), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(oc.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatOrder(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatOrder renders ev as a single log line.
func FormatOrder(ev OrderPlacedEvent) string {
    items := make([]string, 0, len(ev.Lines))
    for _, l := range ev.Lines {
        items = append(items, fmt.Sprintf("%s x%d", l.MovieID, l.Quantity))
    }
    user := ev.Username
    if user == "" {
        user = "-"
    }
    return fmt.Sprintf("[%s] Order placed | txn=%s | session=%s | user=%s | customer_id=%d | units=%d | total=%.2f | items=[%s]\n",
        ev.PlacedAt, ev.TransactionID, ev.Session, user, ev.CustomerID, ev.Units, ev.Total, strings.Join(items, ","))
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
