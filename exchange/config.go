package exchange

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/ziflex/lecho/v3"
)

const (
	BINANCE_CLIENT_TYPE = "binance"
)

type Config struct {
	ExchangeType      string  `envconfig:"EXCHANGE_TYPE" default:"binance"`
	BaseURL           string  `envconfig:"EXCHANGE_BASE_URL" default:"https://api.binance.com"`
	APIKey            string  `envconfig:"EXCHANGE_API_KEY" required:"true"`
	APISecret         string  `envconfig:"EXCHANGE_API_SECRET" required:"true"`
	RecvWindow        int     `envconfig:"EXCHANGE_RECV_WINDOW" default:"5000"` // in milliseconds
	RequestsPerSecond float64 `envconfig:"EXCHANGE_REQUESTS_PER_SECOND" default:"5"`
	Timeout           int     `envconfig:"EXCHANGE_TIMEOUT" default:"15"`           // in seconds
	MaxRetryElapsed   int     `envconfig:"EXCHANGE_MAX_RETRY_ELAPSED" default:"30"` // in seconds
}

func LoadConfig() (c *Config, err error) {
	c = &Config{}
	err = envconfig.Process("", c)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func InitClient(c *Config, logger *lecho.Logger) (Client, error) {
	switch c.ExchangeType {
	case BINANCE_CLIENT_TYPE:
		return NewBinanceClient(c, logger), nil
	default:
		return nil, fmt.Errorf("Did not recognize exchange type %s", c.ExchangeType)
	}
}
