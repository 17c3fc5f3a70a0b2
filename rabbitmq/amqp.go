package rabbitmq

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ziflex/lecho/v3"
)

const (
	defaultHeartbeat   = 10 * time.Second
	defaultLocale      = "en_US"
	defaultDialTimeout = 3 * time.Second

	reconnectMaxInterval = 10 * time.Second
	reconnectMaxElapsed  = time.Minute
)

var ErrReconnecting = errors.New("amqp: publish attempted during reconnect")

// AMQPClient is the small part of an amqp connection the payment event
// publisher and the event tail command need. The default implementation
// reconnects on its own.
type AMQPClient interface {
	Listen(ctx context.Context, exchange, routingKey, queueName string, options ...ListenOption) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Close() error
}

type defaultAMQPClient struct {
	uri    string
	logger *lecho.Logger

	mu             sync.RWMutex
	conn           *amqp.Connection
	publishChannel *amqp.Channel
	consumeChannel *amqp.Channel
	closed         chan *amqp.Error

	// set while the reconnection loop is dialing
	reconnecting atomic.Bool

	listenersMu sync.Mutex
	listeners   []chan bool
}

type DialOption = func(client *defaultAMQPClient)

func WithAmqpLogger(logger *lecho.Logger) DialOption {
	return func(client *defaultAMQPClient) {
		client.logger = logger
	}
}

// DialAMQP connects to uri and keeps the connection alive in the
// background until Close is called.
func DialAMQP(uri string, options ...DialOption) (AMQPClient, error) {
	client := &defaultAMQPClient{
		uri: uri,
		logger: lecho.New(
			os.Stdout,
			lecho.WithLevel(log.DEBUG),
			lecho.WithTimestamp(),
		),
	}
	for _, opt := range options {
		opt(client)
	}
	if err := client.connect(); err != nil {
		return nil, err
	}

	go client.reconnectionLoop()

	return client, nil
}

func (c *defaultAMQPClient) connect() error {
	conn, err := amqp.DialConfig(c.uri, amqp.Config{
		Heartbeat: defaultHeartbeat,
		Locale:    defaultLocale,
		Dial:      amqp.DefaultDial(defaultDialTimeout),
	})
	if err != nil {
		return err
	}

	// publishing and consuming use separate channels so flow control on
	// one does not stall the other
	publishChannel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	consumeChannel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	closed := make(chan *amqp.Error, 1)
	conn.NotifyClose(closed)

	c.mu.Lock()
	c.conn = conn
	c.publishChannel = publishChannel
	c.consumeChannel = consumeChannel
	c.closed = closed
	c.mu.Unlock()

	return nil
}

func (c *defaultAMQPClient) reconnectionLoop() {
	for {
		c.mu.RLock()
		closed := c.closed
		c.mu.RUnlock()

		amqpErr, ok := <-closed
		if !ok || amqpErr == nil {
			// graceful Close
			c.notifyListeners(false)
			return
		}
		c.logger.Errorf("amqp: connection lost: %v", amqpErr)

		c.reconnecting.Store(true)
		retry := backoff.NewExponentialBackOff()
		retry.MaxInterval = reconnectMaxInterval
		retry.MaxElapsedTime = reconnectMaxElapsed

		c.logger.Info("amqp: trying to reconnect...")
		if err := backoff.Retry(c.connect, retry); err != nil {
			c.logger.Errorf("amqp: giving up reconnecting: %v", err)
			c.notifyListeners(false)
			return
		}
		c.reconnecting.Store(false)
		c.logger.Info("amqp: successfully reconnected")
		c.notifyListeners(true)
	}
}

func (c *defaultAMQPClient) notifyListeners(reconnected bool) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	for _, listener := range c.listeners {
		select {
		case listener <- reconnected:
		default:
		}
	}
}

func (c *defaultAMQPClient) Close() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn.Close()
}

func (c *defaultAMQPClient) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	// short lived management channel
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	return ch.ExchangeDeclare(name, kind, durable, autoDelete, internal, noWait, args)
}

func (c *defaultAMQPClient) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if c.reconnecting.Load() {
		wait := backoff.NewExponentialBackOff()
		wait.MaxInterval = reconnectMaxInterval
		wait.MaxElapsedTime = reconnectMaxElapsed

		err := backoff.Retry(func() error {
			if c.reconnecting.Load() {
				return ErrReconnecting
			}
			return nil
		}, backoff.WithContext(wait, ctx))
		if err != nil {
			return err
		}
	}

	c.mu.RLock()
	ch := c.publishChannel
	c.mu.RUnlock()
	return ch.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg)
}

type ListenOptions struct {
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	AutoAck    bool
}

type ListenOption = func(opts *ListenOptions)

// WithTransientQueue declares a queue that goes away with its consumer.
func WithTransientQueue() ListenOption {
	return func(opts *ListenOptions) {
		opts.Durable = false
		opts.AutoDelete = true
		opts.Exclusive = true
	}
}

func WithAutoAck(autoAck bool) ListenOption {
	return func(opts *ListenOptions) {
		opts.AutoAck = autoAck
	}
}

// Listen binds queueName to exchange with routingKey and streams its
// deliveries. After a reconnect the binding is restored and the returned
// channel keeps delivering. It is closed when ctx ends or the connection
// is lost for good.
func (c *defaultAMQPClient) Listen(ctx context.Context, exchange, routingKey, queueName string, options ...ListenOption) (<-chan amqp.Delivery, error) {
	opts := ListenOptions{Durable: true}
	for _, opt := range options {
		opt(&opts)
	}

	deliveries, err := c.consume(exchange, routingKey, queueName, opts)
	if err != nil {
		return nil, err
	}

	reconnected := make(chan bool, 1)
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, reconnected)
	c.listenersMu.Unlock()

	out := make(chan amqp.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ok := <-reconnected:
				if !ok {
					return
				}
				d, err := c.consume(exchange, routingKey, queueName, opts)
				if err != nil {
					c.logger.Errorf("amqp: failed to resume consuming routing_key:%s: %v", routingKey, err)
					return
				}
				c.logger.Infof("amqp: consuming again routing_key:%s", routingKey)
				deliveries = d
			case delivery, ok := <-deliveries:
				if !ok {
					// wait for the reconnection loop to hand us a new channel
					deliveries = nil
					continue
				}
				select {
				case out <- delivery:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (c *defaultAMQPClient) consume(exchange, routingKey, queueName string, opts ListenOptions) (<-chan amqp.Delivery, error) {
	c.mu.RLock()
	ch := c.consumeChannel
	c.mu.RUnlock()

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, err
	}

	queue, err := ch.QueueDeclare(
		queueName,
		opts.Durable,
		opts.AutoDelete,
		opts.Exclusive,
		false,
		// bounded redelivery of nacked messages
		amqp.Table{"delivery-limit": 10},
	)
	if err != nil {
		return nil, err
	}

	if err := ch.QueueBind(queue.Name, routingKey, exchange, false, nil); err != nil {
		return nil, err
	}

	return ch.Consume(queue.Name, "", opts.AutoAck, opts.Exclusive, false, false, nil)
}
