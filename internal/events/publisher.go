// Package events notifies collaborators (feed, notifications, rewards) of
// booking outcomes over RabbitMQ. Publishing is best-effort: a booking that
// committed is never rolled back because the broker was unreachable, so
// callers log publish errors and move on.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/palaro-app/courtbook/internal/db"
)

const (
	RoutingKeyBookingCreated   = "booking.created"
	RoutingKeyBookingCancelled = "booking.cancelled"
)

// BookingEvent is the message body collaborators receive.
type BookingEvent struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	OccurredAt    time.Time `json:"occurred_at"`
	ReservationID int64     `json:"reservation_id"`
	PlayerID      int64     `json:"player_id"`
	CourtID       int64     `json:"court_id"`
	VenueID       int64     `json:"venue_id"`
	Date          string    `json:"date"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
}

// Publisher delivers booking notifications to collaborators.
type Publisher interface {
	BookingCreated(ctx context.Context, r db.Reservation) error
	BookingCancelled(ctx context.Context, r db.Reservation, reason string) error
	Close() error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) BookingCreated(context.Context, db.Reservation) error { return nil }
func (NopPublisher) BookingCancelled(context.Context, db.Reservation, string) error {
	return nil
}
func (NopPublisher) Close() error { return nil }

// AMQPPublisher publishes booking events to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials the broker and declares the exchange. Returns an
// error rather than retrying; the caller decides whether a broker is
// required for its environment.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

func (p *AMQPPublisher) BookingCreated(ctx context.Context, r db.Reservation) error {
	return p.publish(ctx, RoutingKeyBookingCreated, newBookingEvent(RoutingKeyBookingCreated, r, ""))
}

func (p *AMQPPublisher) BookingCancelled(ctx context.Context, r db.Reservation, reason string) error {
	return p.publish(ctx, RoutingKeyBookingCancelled, newBookingEvent(RoutingKeyBookingCancelled, r, reason))
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, event BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		log.Error().Err(err).
			Str("routing_key", routingKey).
			Int64("reservation_id", event.ReservationID).
			Msg("Failed to publish booking event")
	}
	return err
}

func newBookingEvent(eventType string, r db.Reservation, reason string) BookingEvent {
	return BookingEvent{
		EventID:       uuid.New().String(),
		Type:          eventType,
		OccurredAt:    time.Now().UTC(),
		ReservationID: r.ID,
		PlayerID:      r.PlayerID,
		CourtID:       r.CourtID,
		VenueID:       r.VenueID,
		Date:          r.Date,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Status:        r.Status,
		Reason:        reason,
	}
}
