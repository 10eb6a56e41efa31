package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/domain"
	"github.com/dvloznov/expense-dashboard/internal/logger"
	"github.com/rabbitmq/amqp091-go"
)

// DefaultRoutingKey is used when none is configured.
const DefaultRoutingKey = "report.updated"

// Channel is the subset of *amqp091.Channel used for publishing.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends a ReportUpdatedMessage to an AMQP exchange.
type Publisher struct {
	conn         *amqp091.Connection
	channel      Channel
	exchangeName string
	routingKey   string
}

// NewPublisher dials url and declares a durable direct exchange.
func NewPublisher(url, exchangeName, routingKey string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	p := NewPublisherWithChannel(channel, exchangeName, routingKey)
	p.conn = conn
	return p, nil
}

// NewPublisherWithChannel publishes on an already open channel.
func NewPublisherWithChannel(channel Channel, exchangeName, routingKey string) *Publisher {
	if routingKey == "" {
		routingKey = DefaultRoutingKey
	}
	return &Publisher{channel: channel, exchangeName: exchangeName, routingKey: routingKey}
}

// NotifyUpdated publishes a persistent report.updated message.
func (p *Publisher) NotifyUpdated(ctx context.Context, run domain.Run, views []aggregate.View) error {
	body, err := NewReportUpdatedMessage(run, views).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		p.routingKey,   // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    run.ID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("exchange", p.exchangeName).
		Str("routing_key", p.routingKey).
		Msg("Published report updated message")
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
