package exchange

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=./mock_exchange/exchange.go github.com/dpyhq/cryptobill/exchange Client

// Client is what the payment poller needs from an exchange account that
// receives invoice payments on shared deposit addresses.
type Client interface {
	// GetDepositHistory returns the deposits credited to the account in the
	// requested window. Transport, auth and rate-limit failures are *APIError.
	GetDepositHistory(ctx context.Context, req DepositHistoryRequest) ([]Deposit, error)
	// VerifyTransactionManually looks a single deposit up by its transaction id.
	// It returns nil, nil when the exchange does not know the transaction.
	VerifyTransactionManually(ctx context.Context, txid, currency string) (*Deposit, error)
	GetRequiredConfirmations(currency, network string) int
}

type DepositHistoryRequest struct {
	Currency  string
	StartTime time.Time
	EndTime   time.Time
	// Status optionally restricts the result to one of the common.DepositStatus* values
	Status string
	Limit  int
}

// Deposit is an incoming transfer as reported by the exchange. It is never
// persisted as-is, the poller turns it into a models.PaymentTransaction.
type Deposit struct {
	TxHash        string          `json:"tx_hash"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Network       string          `json:"network"`
	Confirmations int             `json:"confirmations"`
	Status        string          `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
	Address       string          `json:"address"`
	AddressTag    string          `json:"address_tag,omitempty"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}
