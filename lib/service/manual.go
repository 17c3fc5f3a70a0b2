package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dpyhq/cryptobill/common"
	"github.com/dpyhq/cryptobill/db/models"
	"github.com/dpyhq/cryptobill/exchange"
	"github.com/dpyhq/cryptobill/lib/matcher"
	"github.com/getsentry/sentry-go"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// ManualVerificationTimeout bounds a verification started from HTTP or the CLI.
const ManualVerificationTimeout = 60 * time.Second

const (
	VerificationErrorInvalidRequest      = "invalid_request"
	VerificationErrorInvoiceNotFound     = "invoice_not_found"
	VerificationErrorInvoiceNotPayable   = "invoice_not_payable"
	VerificationErrorTransactionNotFound = "transaction_not_found"
	VerificationErrorAlreadyRecorded     = "transaction_already_recorded"
	VerificationErrorAmountMismatch      = "amount_mismatch"
	VerificationErrorAddressMismatch     = "address_mismatch"
	VerificationErrorMemoMismatch        = "memo_mismatch"
	VerificationErrorExchange            = "exchange_error"
	VerificationErrorInternal            = "internal_error"
)

type ManualVerificationRequest struct {
	InvoiceID  int64  `json:"invoice_id" validate:"required,gt=0"`
	TxID       string `json:"txid" validate:"required,max=256"`
	VerifiedBy string `json:"verified_by" validate:"required,max=255"`
}

type ManualVerificationResult struct {
	Success         bool            `json:"success"`
	Error           string          `json:"error,omitempty"`
	ErrorCode       string          `json:"error_code,omitempty"`
	Message         string          `json:"message,omitempty"`
	InvoiceID       int64           `json:"invoice_id"`
	InvoiceStatus   string          `json:"invoice_status,omitempty"`
	PaymentID       int64           `json:"payment_id,omitempty"`
	TransactionHash string          `json:"transaction_hash,omitempty"`
	Amount          decimal.Decimal `json:"amount,omitempty" swaggertype:"string"`
}

func verificationFailure(invoiceID int64, code string, err error) ManualVerificationResult {
	return ManualVerificationResult{
		Success:   false,
		InvoiceID: invoiceID,
		ErrorCode: code,
		Error:     err.Error(),
	}
}

// ManualPaymentVerification lets an operator mark an invoice paid by pointing
// at the transaction that paid it. The amount is checked against the
// invoice's own PaymentTolerance and the deposit address must match exactly.
// Every outcome, including failures, is reported through the result.
func (p *Poller) ManualPaymentVerification(ctx context.Context, invoiceID int64, txid, verifiedBy string) ManualVerificationResult {
	req := ManualVerificationRequest{
		InvoiceID:  invoiceID,
		TxID:       strings.TrimSpace(txid),
		VerifiedBy: strings.TrimSpace(verifiedBy),
	}
	if err := p.validate.Struct(&req); err != nil {
		return verificationFailure(invoiceID, VerificationErrorInvalidRequest, err)
	}

	release, err := p.lockInvoice(ctx, invoiceID)
	if err != nil {
		return verificationFailure(invoiceID, VerificationErrorInternal, err)
	}
	defer release()

	invoice, err := p.Repo.GetInvoice(ctx, invoiceID)
	if errors.Is(err, ErrNotFound) {
		return verificationFailure(invoiceID, VerificationErrorInvoiceNotFound, fmt.Errorf("invoice %d not found", invoiceID))
	}
	if err != nil {
		return p.internalFailure(invoiceID, err)
	}
	if !invoice.CanTransitionTo(common.InvoiceStatusPaid) {
		return verificationFailure(invoiceID, VerificationErrorInvoiceNotPayable, fmt.Errorf("invoice %d is %s", invoiceID, invoice.Status))
	}

	deposit, err := p.Exchange.VerifyTransactionManually(ctx, req.TxID, invoice.CryptoCurrency)
	if err != nil {
		p.Logger.Errorf("Manual verification lookup failed invoice_id:%v txid:%s: %v", invoiceID, req.TxID, err)
		return verificationFailure(invoiceID, VerificationErrorExchange, err)
	}
	if deposit == nil {
		return verificationFailure(invoiceID, VerificationErrorTransactionNotFound, fmt.Errorf("transaction %s not found on the exchange", req.TxID))
	}
	if code, err := validateManualDeposit(invoice, deposit); err != nil {
		p.Logger.Warnf("Manual verification rejected invoice_id:%v txid:%s verified_by:%s: %v", invoiceID, req.TxID, req.VerifiedBy, err)
		return verificationFailure(invoiceID, code, err)
	}

	existing, err := p.Repo.GetPaymentByTxHash(ctx, deposit.TxHash)
	switch {
	case err == nil && existing.InvoiceID != invoice.ID:
		return verificationFailure(invoiceID, VerificationErrorAlreadyRecorded,
			fmt.Errorf("transaction %s is already recorded for invoice %d", deposit.TxHash, existing.InvoiceID))
	case err == nil:
		return p.confirmExistingManually(ctx, invoice, existing, deposit, req.VerifiedBy)
	case !errors.Is(err, ErrNotFound):
		return p.internalFailure(invoiceID, err)
	}

	now := p.now()
	payment := &models.PaymentTransaction{
		InvoiceID:             invoice.ID,
		TransactionHash:       deposit.TxHash,
		AmountReceived:        deposit.Amount,
		Currency:              exchange.NormalizeCurrency(deposit.Currency),
		Network:               exchange.NormalizeNetwork(deposit.Network),
		DepositAddress:        deposit.Address,
		Status:                common.PaymentStatusConfirmed,
		Confirmations:         deposit.Confirmations,
		RequiredConfirmations: common.ManualVerificationRequiredConfirmations,
		DetectedAt:            now,
		ConfirmedAt:           bun.NullTime{Time: now},
		IsManualVerification:  true,
		VerifiedBy:            req.VerifiedBy,
		RawPayload:            deposit.Raw,
	}
	if !deposit.Timestamp.IsZero() {
		payment.DepositedAt = bun.NullTime{Time: deposit.Timestamp}
	}
	transitioned, err := p.Repo.RecordPayment(ctx, payment, common.InvoiceStatusPaid, &now)
	if errors.Is(err, ErrDuplicateTransaction) {
		return verificationFailure(invoiceID, VerificationErrorAlreadyRecorded, fmt.Errorf("transaction %s is already recorded", deposit.TxHash))
	}
	if err != nil {
		return p.internalFailure(invoiceID, err)
	}
	if transitioned {
		invoice.Status = common.InvoiceStatusPaid
		invoice.PaidAt = bun.NullTime{Time: now}
	}

	p.paymentsConfirmed.Add(1)
	p.Logger.Infof("Invoice paid by manual verification invoice_id:%v payment_id:%v tx_hash:%s verified_by:%s",
		invoice.ID, payment.ID, payment.TransactionHash, req.VerifiedBy)
	p.notify(ctx, common.EventPaymentConfirmed, invoice, payment)

	return ManualVerificationResult{
		Success:         true,
		Message:         fmt.Sprintf("invoice %s marked as paid", invoice.InvoiceNumber),
		InvoiceID:       invoice.ID,
		InvoiceStatus:   invoice.Status,
		PaymentID:       payment.ID,
		TransactionHash: payment.TransactionHash,
		Amount:          payment.AmountReceived,
	}
}

// confirmExistingManually finalizes a payment the poller already recorded
// for this invoice but that is still waiting for confirmations.
func (p *Poller) confirmExistingManually(ctx context.Context, invoice *models.Invoice, payment *models.PaymentTransaction, deposit *exchange.Deposit, verifiedBy string) ManualVerificationResult {
	confirmations := payment.Confirmations
	if deposit.Confirmations > confirmations {
		confirmations = deposit.Confirmations
	}
	now := p.now()
	_, err := p.Repo.ConfirmPayment(ctx, payment, confirmations, now)
	if errors.Is(err, ErrAlreadyConfirmed) {
		return verificationFailure(invoice.ID, VerificationErrorAlreadyRecorded, fmt.Errorf("transaction %s is already confirmed", payment.TransactionHash))
	}
	if err != nil {
		return p.internalFailure(invoice.ID, err)
	}
	payment.Confirmations = confirmations
	payment.Status = common.PaymentStatusConfirmed
	payment.ConfirmedAt = bun.NullTime{Time: now}
	invoice.Status = common.InvoiceStatusPaid
	invoice.PaidAt = bun.NullTime{Time: now}

	p.paymentsConfirmed.Add(1)
	p.Logger.Infof("Detected payment confirmed by manual verification invoice_id:%v payment_id:%v verified_by:%s", invoice.ID, payment.ID, verifiedBy)
	p.notify(ctx, common.EventPaymentConfirmed, invoice, payment)

	return ManualVerificationResult{
		Success:         true,
		Message:         fmt.Sprintf("invoice %s marked as paid", invoice.InvoiceNumber),
		InvoiceID:       invoice.ID,
		InvoiceStatus:   invoice.Status,
		PaymentID:       payment.ID,
		TransactionHash: payment.TransactionHash,
		Amount:          payment.AmountReceived,
	}
}

func (p *Poller) internalFailure(invoiceID int64, err error) ManualVerificationResult {
	p.Logger.Errorf("Manual verification failed invoice_id:%v: %v", invoiceID, err)
	sentry.CaptureException(err)
	return verificationFailure(invoiceID, VerificationErrorInternal, err)
}

func validateManualDeposit(invoice *models.Invoice, deposit *exchange.Deposit) (string, error) {
	if deposit.Status == common.DepositStatusFailed {
		return VerificationErrorTransactionNotFound, &ValidationError{Field: "status", Message: "deposit failed on the exchange"}
	}
	if !matcher.WithinRelativeTolerance(deposit.Amount, invoice.CryptoAmount, invoice.PaymentTolerance) {
		return VerificationErrorAmountMismatch, &ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("received %s, expected %s ± %s", deposit.Amount, invoice.CryptoAmount, invoice.PaymentTolerance),
		}
	}
	if deposit.Address != invoice.DepositAddress {
		return VerificationErrorAddressMismatch, &ValidationError{
			Field:   "deposit_address",
			Message: fmt.Sprintf("deposit went to %s, invoice expects %s", deposit.Address, invoice.DepositAddress),
		}
	}
	if invoice.MemoTag != "" && deposit.AddressTag != invoice.MemoTag {
		return VerificationErrorMemoMismatch, &ValidationError{
			Field:   "memo_tag",
			Message: fmt.Sprintf("deposit memo %q does not match invoice memo %q", deposit.AddressTag, invoice.MemoTag),
		}
	}
	return "", nil
}
