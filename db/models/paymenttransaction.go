package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dpyhq/cryptobill/common"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// PaymentTransaction : a deposit linked to exactly one invoice
// Only Confirmations, Status and ConfirmedAt change after the insert.
type PaymentTransaction struct {
	bun.BaseModel `bun:"table:payment_transactions,alias:payment"`

	ID                    int64           `json:"id" bun:",pk,autoincrement"`
	InvoiceID             int64           `json:"invoice_id" bun:",notnull"`
	Invoice               *Invoice        `json:"-" bun:"rel:belongs-to,join:invoice_id=id"`
	TransactionHash       string          `json:"transaction_hash,omitempty" bun:",nullzero,unique"`
	AmountReceived        decimal.Decimal `json:"amount_received" bun:"type:numeric(36,18),notnull"`
	Currency              string          `json:"currency" bun:",notnull"`
	Network               string          `json:"network" bun:",notnull"`
	DepositAddress        string          `json:"deposit_address" bun:",notnull"`
	Status                string          `json:"status" bun:",notnull,default:'pending'"`
	Confirmations         int             `json:"confirmations" bun:",notnull,default:0"`
	RequiredConfirmations int             `json:"required_confirmations" bun:",notnull"`
	DetectedAt            time.Time       `json:"detected_at" bun:",notnull"`
	DepositedAt           bun.NullTime    `json:"deposited_at"`
	ConfirmedAt           bun.NullTime    `json:"confirmed_at"`
	IsManualVerification  bool            `json:"is_manual_verification" bun:",notnull,default:false"`
	VerifiedBy            string          `json:"verified_by,omitempty" bun:",nullzero"`
	RawPayload            json.RawMessage `json:"-" bun:"type:jsonb,nullzero"`
	CreatedAt             time.Time       `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt             bun.NullTime    `json:"updated_at"`
}

func (p *PaymentTransaction) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		p.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

// ReferenceTime is the moment used by the duplicate window: the exchange-side
// deposit time when we know it, the detection time otherwise.
func (p *PaymentTransaction) ReferenceTime() time.Time {
	if !p.DepositedAt.IsZero() {
		return p.DepositedAt.Time
	}
	return p.DetectedAt
}

func (p *PaymentTransaction) IsConfirmed() bool {
	return p.Status == common.PaymentStatusConfirmed
}

// PaymentStatusFor maps a confirmation count onto the payment state machine:
// pending (0) -> detected (0 < n < required) -> confirmed (n >= required).
func PaymentStatusFor(confirmations, required int) string {
	switch {
	case confirmations >= required:
		return common.PaymentStatusConfirmed
	case confirmations > 0:
		return common.PaymentStatusDetected
	default:
		return common.PaymentStatusPending
	}
}

var _ bun.BeforeAppendModelHook = (*PaymentTransaction)(nil)
