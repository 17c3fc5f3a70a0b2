package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dpyhq/cryptobill/db/models"
)

//go:generate mockgen -destination=./mock_service/repository.go github.com/dpyhq/cryptobill/lib/service InvoiceRepository

var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateTransaction = errors.New("payment transaction already recorded")
	ErrAlreadyConfirmed     = errors.New("payment already confirmed")
	ErrStopTimeout          = errors.New("poller did not stop in time")
)

// ValidationError reports a deposit that does not fit the invoice it was checked against.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type PollingEvent struct {
	InvoiceID     int64
	Status        string
	DepositsFound int
	ErrorMessage  string
	RawResponse   json.RawMessage
}

// InvoiceRepository is everything the poller needs from storage.
// Status updates are conditional: an invoice only moves when its current
// status allows the transition, and the bool results tell whether it did.
type InvoiceRepository interface {
	// GetPendingInvoices returns sent and partially paid invoices, earliest due date first.
	GetPendingInvoices(ctx context.Context) ([]models.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id int64, status string, paidAt *time.Time) (bool, error)
	// MarkOverdue moves every pending invoice due before dueBefore to overdue.
	MarkOverdue(ctx context.Context, dueBefore time.Time) (int, error)

	GetPaymentsForInvoice(ctx context.Context, invoiceID int64) ([]models.PaymentTransaction, error)
	GetPaymentByTxHash(ctx context.Context, txHash string) (*models.PaymentTransaction, error)
	CreatePaymentTransaction(ctx context.Context, payment *models.PaymentTransaction) (int64, error)
	// UpdatePaymentConfirmations stores a new confirmation count, an empty status keeps the current one.
	UpdatePaymentConfirmations(ctx context.Context, id int64, confirmations int, status string) error
	// GetUnconfirmedPayments returns pending and detected payments still below their required confirmations.
	GetUnconfirmedPayments(ctx context.Context) ([]models.PaymentTransaction, error)

	// RecordPayment inserts payment and moves its invoice to invoiceStatus in one transaction.
	RecordPayment(ctx context.Context, payment *models.PaymentTransaction, invoiceStatus string, paidAt *time.Time) (bool, error)
	// ConfirmPayment marks payment confirmed and its invoice paid in one transaction.
	// It fails with ErrAlreadyConfirmed when the payment was confirmed before.
	ConfirmPayment(ctx context.Context, payment *models.PaymentTransaction, confirmations int, confirmedAt time.Time) (bool, error)

	LogPollingEvent(ctx context.Context, event PollingEvent) error
	GetConfig(ctx context.Context, key string) (string, error)
}
