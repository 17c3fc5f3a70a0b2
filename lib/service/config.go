package service

import (
	"time"

	"github.com/dpyhq/cryptobill/lib/matcher"
	"github.com/shopspring/decimal"
)

type Config struct {
	DatabaseUri             string  `envconfig:"DATABASE_URI" required:"true"`
	DatabaseMaxConns        int     `envconfig:"DATABASE_MAX_CONNS" default:"10"`
	DatabaseMaxIdleConns    int     `envconfig:"DATABASE_MAX_IDLE_CONNS" default:"5"`
	DatabaseConnMaxLifetime int     `envconfig:"DATABASE_CONN_MAX_LIFETIME" default:"1800"` // 30 minutes
	SentryDSN               string  `envconfig:"SENTRY_DSN"`
	SentryTracesSampleRate  float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
	DatadogAgentUrl         string  `envconfig:"DATADOG_AGENT_URL"`
	LogFilePath             string  `envconfig:"LOG_FILE_PATH"`
	AdminToken              string  `envconfig:"ADMIN_TOKEN"`
	Port                    int     `envconfig:"PORT" default:"3000"`
	DefaultRateLimit        int     `envconfig:"DEFAULT_RATE_LIMIT" default:"10"`
	StrictRateLimit         int     `envconfig:"STRICT_RATE_LIMIT" default:"1"`
	BurstRateLimit          int     `envconfig:"BURST_RATE_LIMIT" default:"1"`
	EnablePrometheus        bool    `envconfig:"ENABLE_PROMETHEUS" default:"false"`
	PrometheusPort          int     `envconfig:"PROMETHEUS_PORT" default:"9092"`
	WebhookUrl              string  `envconfig:"WEBHOOK_URL"`
	RabbitMQUri             string  `envconfig:"RABBITMQ_URI"`
	RabbitMQPaymentExchange string  `envconfig:"RABBITMQ_PAYMENT_EXCHANGE" default:"cryptobill_payment"`
	RedisUrl                string  `envconfig:"REDIS_URL"`

	PollInterval              time.Duration   `envconfig:"POLL_INTERVAL" default:"30s"`
	PollLookback              time.Duration   `envconfig:"POLL_LOOKBACK" default:"168h"` // 7 days
	MatchTolerance            decimal.Decimal `envconfig:"MATCH_TOLERANCE" default:"0.001"`
	DuplicateWindow           time.Duration   `envconfig:"DUPLICATE_WINDOW" default:"300s"`
	RecencyHorizonDays        float64         `envconfig:"RECENCY_HORIZON_DAYS" default:"30"`
	OverdueDays               int             `envconfig:"OVERDUE_DAYS" default:"7"`
	ConfirmationCheckInterval time.Duration   `envconfig:"CONFIRMATION_CHECK_INTERVAL" default:"5m"`
	OverdueCheckInterval      time.Duration   `envconfig:"OVERDUE_CHECK_INTERVAL" default:"1h"`
	StopTimeout               time.Duration   `envconfig:"STOP_TIMEOUT" default:"30s"`
	LockTimeout               time.Duration   `envconfig:"LOCK_TIMEOUT" default:"30s"`
	DepositHistoryLimit       int             `envconfig:"DEPOSIT_HISTORY_LIMIT" default:"1000"`
}

// DefaultPollerConfig returns the poller settings with their default values,
// for callers that do not go through envconfig.
func DefaultPollerConfig() *Config {
	return &Config{
		PollInterval:              30 * time.Second,
		PollLookback:              7 * 24 * time.Hour,
		MatchTolerance:            decimal.NewFromFloat(0.001),
		DuplicateWindow:           300 * time.Second,
		RecencyHorizonDays:        30,
		OverdueDays:               7,
		ConfirmationCheckInterval: 5 * time.Minute,
		OverdueCheckInterval:      time.Hour,
		StopTimeout:               30 * time.Second,
		LockTimeout:               30 * time.Second,
		DepositHistoryLimit:       1000,
	}
}

func (c *Config) MatcherConfig() matcher.Config {
	mc := matcher.DefaultConfig()
	if c.MatchTolerance.IsPositive() {
		mc.AmountTolerance = c.MatchTolerance
	}
	if c.DuplicateWindow > 0 {
		mc.DuplicateWindow = c.DuplicateWindow
	}
	if c.RecencyHorizonDays > 0 {
		mc.RecencyHorizonDays = c.RecencyHorizonDays
	}
	return mc
}
