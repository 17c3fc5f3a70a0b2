package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dpyhq/cryptobill/db"
	"github.com/dpyhq/cryptobill/db/migrations"
	"github.com/dpyhq/cryptobill/exchange"
	"github.com/dpyhq/cryptobill/lib"
	"github.com/dpyhq/cryptobill/lib/locks"
	"github.com/dpyhq/cryptobill/lib/service"
	"github.com/dpyhq/cryptobill/lib/tokens"
	"github.com/dpyhq/cryptobill/lib/transport"
	"github.com/dpyhq/cryptobill/rabbitmq"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/uptrace/bun/migrate"
	ddEcho "gopkg.in/DataDog/dd-trace-go.v1/contrib/labstack/echo.v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// @title        cryptobill
// @version      0.1.0
// @description  Crypto invoice payment detection and reconciliation.

// @BasePath  /

// @securitydefinitions.apikey  AdminToken
// @in                          header
// @name                        Authorization

// @schemes https http
func main() {
	c := &service.Config{}

	// Load configuration from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	// Setup logging to STDOUT or a configured log file
	logger := lib.Logger(c.LogFilePath)

	// Open a DB connection based on the configured DATABASE_URI
	dbConn, err := db.Open(c)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}
	defer dbConn.Close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStartup()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	err = migrator.Init(startupCtx)
	if err != nil {
		logger.Fatalf("Error initializing db migrator: %v", err)
	}
	group, err := migrator.Migrate(startupCtx)
	if err != nil {
		logger.Fatalf("Error migrating database: %v", err)
	}
	if !group.IsZero() {
		logger.Infof("Migrated database to %s", group)
	}

	// sentry init needs to happen before the echo middlewares are added
	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn:              c.SentryDSN,
			IgnoreErrors:     []string{"401"},
			EnableTracing:    c.SentryTracesSampleRate > 0,
			TracesSampleRate: c.SentryTracesSampleRate,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	exchangeCfg, err := exchange.LoadConfig()
	if err != nil {
		logger.Fatalf("Error loading exchange config: %v", err)
	}
	exchangeClient, err := exchange.InitClient(exchangeCfg, logger)
	if err != nil {
		logger.Fatalf("Error initializing the exchange client: %v", err)
	}

	// Without REDIS_URL invoice locks only cover this process
	var locker locks.Locker = locks.NewLocal()
	if c.RedisUrl != "" {
		redisLocker, err := locks.NewRedisFromURL(startupCtx, c.RedisUrl, locks.WithLogger(logger))
		if err != nil {
			logger.Fatalf("Error connecting to redis: %v", err)
		}
		defer redisLocker.Close()
		locker = redisLocker
		logger.Info("Using redis invoice locks")
	}

	pubsub := service.NewPubsub()
	notifiers := service.MultiNotifier{pubsub}

	// If no RABBITMQ_URI was provided we will not attempt to create a client
	if c.RabbitMQUri != "" {
		amqpClient, err := rabbitmq.DialAMQP(c.RabbitMQUri, rabbitmq.WithAmqpLogger(logger))
		if err != nil {
			logger.Fatal(err)
		}
		rabbitmqClient, err := rabbitmq.NewClient(amqpClient,
			rabbitmq.WithLogger(logger),
			rabbitmq.WithPaymentExchange(c.RabbitMQPaymentExchange),
		)
		if err != nil {
			logger.Fatal(err)
		}
		// close the connection gently at the end of the runtime
		defer rabbitmqClient.Close()
		notifiers = append(notifiers, rabbitmqClient)
	}

	store := db.NewStore(dbConn)
	poller := service.NewPoller(c, store, exchangeClient,
		service.WithLocker(locker),
		service.WithNotifier(notifiers),
		service.WithLogger(logger),
	)

	//init echo server
	e := transport.InitEcho(c, logger)
	//if Datadog is configured, add datadog middleware
	if c.DatadogAgentUrl != "" {
		tracer.Start(tracer.WithAgentAddr(c.DatadogAgentUrl), tracer.WithService("cryptobill"))
		defer tracer.Stop()
		e.Use(ddEcho.Middleware(ddEcho.WithServiceName("cryptobill")))
	}

	logMw := transport.CreateLoggingMiddleware(logger)
	strictRateLimitMiddleware := transport.CreateRateLimitMiddleware(c.StrictRateLimit, c.BurstRateLimit)
	if c.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN is not set, the admin API is unauthenticated")
	}
	transport.RegisterAdminEndpoints(poller, dbConn, e, tokens.AdminTokenMiddleware(c.AdminToken), strictRateLimitMiddleware, logMw)

	var backgroundWg sync.WaitGroup
	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// signals do not reach the worker, poller.Stop lets the current invoice finish
	backgroundCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	if err := poller.Start(backgroundCtx); err != nil {
		logger.Fatalf("Error starting payment poller: %v", err)
	}

	//Start webhook subscription
	if c.WebhookUrl != "" {
		webhook := service.NewWebhookNotifier(c.WebhookUrl, logger)
		backgroundWg.Add(1)
		go func() {
			webhook.StartWebhookSubscription(backgroundCtx, pubsub)
			logger.Info("Webhook routine done")
			backgroundWg.Done()
		}()
	}

	//Start Prometheus server if necessary
	if c.EnablePrometheus {
		go transport.StartPrometheusEcho(logger, c, e)
	}

	// Start server
	go func() {
		if err := e.Start(fmt.Sprintf(":%v", c.Port)); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	<-signalCtx.Done()
	logger.Info("Shutting down")
	if err := poller.Stop(); err != nil {
		logger.Errorf("Payment poller did not stop cleanly: %v", err)
	}
	cancelBackground()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	//Wait for graceful shutdown of background routines
	backgroundWg.Wait()
	logger.Info("cryptobill exiting gracefully. Goodbye.")
}
