package models

import (
	"context"
	"time"

	"github.com/dpyhq/cryptobill/common"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Invoice : Invoice Model
// Invoices are created outside of this service, only Status and PaidAt are written here.
type Invoice struct {
	bun.BaseModel `bun:"table:invoices,alias:invoice"`

	ID               int64           `json:"id" bun:",pk,autoincrement"`
	InvoiceNumber    string          `json:"invoice_number" bun:",notnull,unique"`
	ClientID         int64           `json:"client_id" bun:",notnull"`
	Status           string          `json:"status" bun:",notnull,default:'draft'"`
	AmountUSD        decimal.Decimal `json:"amount_usd" bun:"type:numeric(20,2),notnull"`
	CryptoCurrency   string          `json:"crypto_currency" bun:",notnull"`
	CryptoAmount     decimal.Decimal `json:"crypto_amount" bun:"type:numeric(36,18),notnull"`
	CryptoNetwork    string          `json:"crypto_network" bun:",notnull"`
	DepositAddress   string          `json:"deposit_address" bun:",notnull"`
	MemoTag          string          `json:"memo_tag,omitempty" bun:",nullzero"`
	IssueDate        time.Time       `json:"issue_date" bun:",notnull"`
	DueDate          time.Time       `json:"due_date" bun:",notnull"`
	PaymentTolerance decimal.Decimal `json:"payment_tolerance" bun:"type:numeric(10,6),notnull,default:0.01"`
	PaidAt           bun.NullTime    `json:"paid_at"`
	CreatedAt        time.Time       `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt        bun.NullTime    `json:"updated_at"`
}

func (i *Invoice) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		i.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

// PollableInvoiceStatuses are the statuses the poller reconciles.
// Overdue invoices are deliberately not part of it, late payments on them
// are only picked up through manual verification.
var PollableInvoiceStatuses = []string{
	common.InvoiceStatusSent,
	common.InvoiceStatusPartiallyPaid,
}

// invoiceTransitions lists the transitions this service is allowed to make.
// Cancellation happens elsewhere.
var invoiceTransitions = map[string][]string{
	common.InvoiceStatusSent: {
		common.InvoiceStatusPartiallyPaid,
		common.InvoiceStatusPaid,
		common.InvoiceStatusOverdue,
	},
	common.InvoiceStatusPartiallyPaid: {
		common.InvoiceStatusPaid,
		common.InvoiceStatusOverdue,
	},
	common.InvoiceStatusOverdue: {
		common.InvoiceStatusPaid,
	},
}

func (i *Invoice) IsPollable() bool {
	for _, s := range PollableInvoiceStatuses {
		if i.Status == s {
			return true
		}
	}
	return false
}

func (i *Invoice) IsTerminal() bool {
	return IsTerminalInvoiceStatus(i.Status)
}

func (i *Invoice) CanTransitionTo(status string) bool {
	for _, next := range invoiceTransitions[i.Status] {
		if next == status {
			return true
		}
	}
	return false
}

func IsTerminalInvoiceStatus(status string) bool {
	return status == common.InvoiceStatusPaid || status == common.InvoiceStatusCancelled
}

// SourceStatusesFor returns every status from which an invoice may move to target.
func SourceStatusesFor(target string) []string {
	sources := []string{}
	for from, targets := range invoiceTransitions {
		for _, t := range targets {
			if t == target {
				sources = append(sources, from)
			}
		}
	}
	return sources
}

var _ bun.BeforeAppendModelHook = (*Invoice)(nil)
