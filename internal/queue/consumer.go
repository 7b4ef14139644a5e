package queue

// consumer.go runs the background worker that listens to the
// order.placed and order.cancelled queues and appends structured lines
// to logs/orders.log.

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartOrderConsumer connects to RabbitMQ, declares both order queues
// (durable), and starts consuming messages.  Each message is appended
// to logs/orders.log in a single-line, human-friendly format.  The
// function runs a reconnect loop with backoff and keeps running for
// the lifetime of the process, logging any processing errors while
// rejecting the offending message so the server continues operating.
func StartOrderConsumer() error {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(brokerURL())
        if err != nil {
            log.Printf("order-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn); err != nil {
            log.Printf("order-consumer: consume loop ended: %v; reconnecting", err)
            time.Sleep(2 * time.Second)
            continue
        }
    }
}

func consumeLoop(conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("order-consumer: set QoS failed: %v", err)
    }

    for _, name := range []string{placedQueueName, cancelledQueueName} {
        if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", name, err)
        }
    }

    placed, err := ch.Consume(placedQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume %s: %w", placedQueueName, err)
    }
    cancelled, err := ch.Consume(cancelledQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("consume %s: %w", cancelledQueueName, err)
    }

    for {
        select {
        case d, ok := <-placed:
            if !ok {
                return errors.New("placed deliveries channel closed")
            }
            ackOrReject(d, handlePlaced(d.Body))
        case d, ok := <-cancelled:
            if !ok {
                return errors.New("cancelled deliveries channel closed")
            }
            ackOrReject(d, handleCancelled(d.Body))
        }
    }
}

func ackOrReject(d amqp.Delivery, err error) {
    if err != nil {
        log.Printf("order-consumer: handle message failed: %v", err)
        _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
        return
    }
    _ = d.Ack(false)
}

func handlePlaced(body []byte) error {
    var ev OrderPlacedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    titles := "[]"
    if len(ev.Titles) > 0 {
        titles = fmt.Sprintf("[%s]", strings.Join(ev.Titles, ","))
    }
    line := fmt.Sprintf("[%s] Order placed | order_id=%d | ref=%s | customer=%q | channel=%s | status=%s | total=%.2f | titles=%s\n",
        ev.PlacedAt, ev.OrderID, ev.Reference, ev.CustomerName, ev.Channel, ev.Status, ev.Total, titles)
    return appendLogLine(line)
}

func handleCancelled(body []byte) error {
    var ev OrderCancelledEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    line := fmt.Sprintf("[%s] Order cancelled | order_id=%d | ref=%s | customer=%q | total=%.2f | by=%q | reason=%q\n",
        ev.CancelledAt, ev.OrderID, ev.Reference, ev.CustomerName, ev.OrderTotal, ev.CancelledByName, ev.Reason)
    return appendLogLine(line)
}

func appendLogLine(line string) error {
    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    fpath := filepath.Join("logs", "orders.log")
    f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
