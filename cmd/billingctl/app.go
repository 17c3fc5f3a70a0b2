package main

import (
	"context"
	"fmt"

	"github.com/dpyhq/cryptobill/db"
	"github.com/dpyhq/cryptobill/exchange"
	"github.com/dpyhq/cryptobill/lib"
	"github.com/dpyhq/cryptobill/lib/locks"
	"github.com/dpyhq/cryptobill/lib/service"
	"github.com/dpyhq/cryptobill/rabbitmq"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

// app holds what the commands share. It is filled in lazily so that
// argument errors are reported without touching the database.
type app struct {
	config *service.Config
	logger *lecho.Logger
	db     *bun.DB
	store  *db.Store
	poller *service.Poller

	closers []func() error
}

func (a *app) loadConfig() error {
	if a.config != nil {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		fmt.Println("Failed to load .env file")
	}
	c := &service.Config{}
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("loading environment variables: %w", err)
	}
	a.config = c
	a.logger = lib.Logger(c.LogFilePath)

	if c.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: c.SentryDSN}); err != nil {
			a.logger.Errorf("sentry init error: %v", err)
		}
	}
	return nil
}

func (a *app) openStore() error {
	if a.store != nil {
		return nil
	}
	if err := a.loadConfig(); err != nil {
		return err
	}
	dbConn, err := db.Open(a.config)
	if err != nil {
		return err
	}
	a.db = dbConn
	a.store = db.NewStore(dbConn)
	a.closers = append(a.closers, dbConn.Close)
	return nil
}

// openPoller builds a poller that is never started, commands drive it
// one operation at a time.
func (a *app) openPoller(ctx context.Context) error {
	if a.poller != nil {
		return nil
	}
	if err := a.openStore(); err != nil {
		return err
	}
	exchangeCfg, err := exchange.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading exchange config: %w", err)
	}
	exchangeClient, err := exchange.InitClient(exchangeCfg, a.logger)
	if err != nil {
		return err
	}

	// the server holds the same redis locks, so a verification run from
	// here cannot interleave with its poll cycle
	var locker locks.Locker = locks.NewLocal()
	if a.config.RedisUrl != "" {
		redisLocker, err := locks.NewRedisFromURL(ctx, a.config.RedisUrl, locks.WithLogger(a.logger))
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, redisLocker.Close)
		locker = redisLocker
	}

	// payments confirmed from the CLI still reach the event consumers
	var notifier service.Notifier
	if a.config.RabbitMQUri != "" {
		amqpClient, err := rabbitmq.DialAMQP(a.config.RabbitMQUri, rabbitmq.WithAmqpLogger(a.logger))
		if err != nil {
			return err
		}
		rabbitmqClient, err := rabbitmq.NewClient(amqpClient,
			rabbitmq.WithLogger(a.logger),
			rabbitmq.WithPaymentExchange(a.config.RabbitMQPaymentExchange),
		)
		if err != nil {
			amqpClient.Close()
			return err
		}
		a.closers = append(a.closers, rabbitmqClient.Close)
		notifier = rabbitmqClient
	}

	a.poller = service.NewPoller(a.config, a.store, exchangeClient,
		service.WithLocker(locker),
		service.WithNotifier(notifier),
		service.WithLogger(a.logger),
	)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
	sentry.Flush(sentryFlushTimeout)
}
