package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notifier sends a notification email.  *service.Mailer satisfies it.
type Notifier interface {
	Send(to, subject, body string) error
}

// StartBookingConsumer connects to RabbitMQ, declares the durable
// booking.events queue and consumes it, emailing the customer and
// appending a line to logs/booking.log per event.  It runs a
// reconnect loop with backoff and never returns under normal
// operation; failed messages are rejected without requeue so a poison
// message cannot wedge the queue.
func StartBookingConsumer(url string, notifier Notifier) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("booking-consumer: dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, notifier); err != nil {
			log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, notifier Notifier) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("booking-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(BookingQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(BookingQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(d.Body, notifier); err != nil {
			log.Printf("booking-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(body []byte, notifier Notifier) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	subject, text := composeMail(ev)
	if notifier != nil {
		if err := notifier.Send(ev.CustomerEmail, subject, text); err != nil {
			// Email is best-effort; log and still record the event.
			log.Printf("booking-consumer: notify %s failed: %v", ev.CustomerEmail, err)
		}
	}
	return appendLog(ev)
}

func composeMail(ev BookingEvent) (subject, body string) {
	switch ev.Action {
	case ActionCancelled:
		subject = fmt.Sprintf("Booking cancelled: %s", ev.TrainingName)
		body = fmt.Sprintf("Hello %s,\n\nyour booking for %q on %s in %s has been cancelled.\n",
			ev.CustomerName, ev.TrainingName, ev.StartDate, ev.Location)
	default:
		subject = fmt.Sprintf("Booking confirmed: %s", ev.TrainingName)
		body = fmt.Sprintf("Hello %s,\n\nyour booking for %q on %s in %s is confirmed. See you there!\n",
			ev.CustomerName, ev.TrainingName, ev.StartDate, ev.Location)
	}
	return subject, body
}

func appendLog(ev BookingEvent) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join("logs", "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] booking %s | booking_id=%s | training=%q | date=%s | location=%q | customer=%s\n",
		ev.OccurredAt, ev.Action, ev.BookingID, ev.TrainingName, ev.StartDate, ev.Location, ev.CustomerEmail)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
