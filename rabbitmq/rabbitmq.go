package rabbitmq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dpyhq/cryptobill/lib/service"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ziflex/lecho/v3"
)

// bufPool reuses the buffers payment events are encoded into.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

const (
	contentTypeJSON = "application/json"

	DefaultPaymentExchange = "cryptobill_payment"
	// AllPaymentEvents matches every routing key the publisher uses.
	AllPaymentEvents = "payment.#"
)

// Client publishes payment events to a topic exchange. It satisfies
// service.Notifier so it can be handed to the poller directly.
type Client interface {
	PublishPaymentEvent(ctx context.Context, event service.PaymentEvent) error
	Notify(ctx context.Context, event service.PaymentEvent) error
	// Close will close all connections to rabbitmq
	Close() error
}

type DefaultClient struct {
	amqpClient AMQPClient
	logger     *lecho.Logger

	paymentExchange string
}

type ClientOption = func(client *DefaultClient)

func WithPaymentExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.paymentExchange = exchange
	}
}

func WithLogger(logger *lecho.Logger) ClientOption {
	return func(client *DefaultClient) {
		client.logger = logger
	}
}

// NewClient declares the payment exchange on amqpClient and returns a
// publisher for it.
func NewClient(amqpClient AMQPClient, options ...ClientOption) (*DefaultClient, error) {
	client := &DefaultClient{
		amqpClient: amqpClient,
		logger: lecho.New(
			os.Stdout,
			lecho.WithLevel(log.DEBUG),
			lecho.WithTimestamp(),
		),
		paymentExchange: DefaultPaymentExchange,
	}
	for _, opt := range options {
		opt(client)
	}

	err := amqpClient.ExchangeDeclare(
		client.paymentExchange,
		// topic exchanges route on the payment.<event> key
		amqp.ExchangeTopic,
		// durable and not auto deleted so the exchange survives broker restarts
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", client.paymentExchange, err)
	}

	return client, nil
}

func (client *DefaultClient) Close() error { return client.amqpClient.Close() }

func (client *DefaultClient) Notify(ctx context.Context, event service.PaymentEvent) error {
	return client.PublishPaymentEvent(ctx, event)
}

// RoutingKey is the key a payment event is published with.
func RoutingKey(event service.PaymentEvent) string {
	return "payment." + event.Event
}

func (client *DefaultClient) PublishPaymentEvent(ctx context.Context, event service.PaymentEvent) error {
	payload := bufPool.Get().(*bytes.Buffer)
	payload.Reset()
	defer bufPool.Put(payload)

	if err := json.NewEncoder(payload).Encode(event); err != nil {
		return err
	}

	timestamp := event.OccurredAt
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	err := client.amqpClient.PublishWithContext(ctx,
		client.paymentExchange,
		RoutingKey(event),
		false,
		false,
		amqp.Publishing{
			ContentType:  contentTypeJSON,
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    timestamp,
			Body:         payload.Bytes(),
		},
	)
	if err != nil {
		captureErr(client.logger, err)
		return err
	}

	client.logger.Debugf("Published payment event event:%s invoice_id:%v tx_hash:%s", event.Event, event.Invoice.ID, event.Payment.TransactionHash)

	return nil
}

// Tail decodes every payment event delivered on queueName and hands it to
// handler until ctx ends. Deliveries that fail to decode are dropped.
func Tail(ctx context.Context, amqpClient AMQPClient, exchange, queueName string, handler func(service.PaymentEvent) error) error {
	deliveries, err := amqpClient.Listen(ctx, exchange, AllPaymentEvents, queueName, WithTransientQueue(), WithAutoAck(false))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("amqp: deliveries channel closed")
			}
			var event service.PaymentEvent
			if err := json.Unmarshal(delivery.Body, &event); err != nil {
				sentry.CaptureException(err)
				_ = delivery.Nack(false, false)
				continue
			}
			if err := handler(event); err != nil {
				_ = delivery.Nack(false, true)
				return err
			}
			if err := delivery.Ack(false); err != nil {
				sentry.CaptureException(err)
			}
		}
	}
}

func captureErr(logger *lecho.Logger, err error) {
	logger.Error(err)
	sentry.CaptureException(err)
}
