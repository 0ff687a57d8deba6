// Package queue_publisher publishes domain events to RabbitMQ.  Errors are
// logged and returned so callers can ignore failures without interrupting
// the request flow.
package queue_publisher

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/movie-storefront/internal/logger"
    q "github.com/iliyamo/movie-storefront/internal/queue"
)

// Publisher sends order events.  Each publish opens its own short-lived
// connection.
type Publisher struct {
    URL   string
    Queue string
}

// New returns a Publisher for url.  An empty queue means q.OrderPlacedQueue.
func New(url, queue string) *Publisher {
    if queue == "" {
        queue = q.OrderPlacedQueue
    }
    return &Publisher{URL: url, Queue: queue}
}

// PublishOrderPlaced publishes ev as a persistent JSON message on the
// default exchange, routed to the order queue.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, ev q.OrderPlacedEvent) error {
    log := logger.From(ctx)
    body, err := json.Marshal(ev)
    if err != nil {
        log.Error("rabbitmq: marshal event failed", "err", err)
        return err
    }

    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.Error("rabbitmq: dial failed", "err", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Error("rabbitmq: channel open failed", "err", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // idempotent; durable so messages survive broker restarts
    if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
        log.Error("rabbitmq: queue declare failed", "queue", p.Queue, "err", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        MessageId:    ev.TransactionID,
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
        log.Error("rabbitmq: publish failed", "queue", p.Queue, "err", err)
        return err
    }
    return nil
}
