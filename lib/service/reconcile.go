package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dpyhq/cryptobill/common"
	"github.com/dpyhq/cryptobill/db/models"
	"github.com/dpyhq/cryptobill/exchange"
	"github.com/dpyhq/cryptobill/lib/locks"
	"github.com/uptrace/bun"
)

func (p *Poller) lockInvoice(ctx context.Context, invoiceID int64) (func(), error) {
	timeout := p.Config.LockTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Locker.Lock(lockCtx, locks.InvoiceKey(invoiceID))
}

// reconcileInvoice looks for a payment of invoice among the deposits of the
// last PollLookback and records the first one that matches.
func (p *Poller) reconcileInvoice(ctx context.Context, invoice *models.Invoice) (bool, error) {
	release, err := p.lockInvoice(ctx, invoice.ID)
	if err != nil {
		return false, err
	}
	defer release()

	now := p.now()
	start := now.Add(-p.Config.PollLookback)
	if invoice.IssueDate.After(start) {
		start = invoice.IssueDate
	}
	deposits, err := p.Exchange.GetDepositHistory(ctx, exchange.DepositHistoryRequest{
		Currency:  invoice.CryptoCurrency,
		StartTime: start,
		EndTime:   now,
		Limit:     p.Config.DepositHistoryLimit,
	})
	if err != nil {
		return false, fmt.Errorf("fetch deposit history for invoice %d: %w", invoice.ID, err)
	}
	existing, err := p.Repo.GetPaymentsForInvoice(ctx, invoice.ID)
	if err != nil {
		return false, fmt.Errorf("load payments for invoice %d: %w", invoice.ID, err)
	}

	onNetwork := make([]exchange.Deposit, 0, len(deposits))
	for _, d := range deposits {
		if exchange.SameNetwork(d.Network, invoice.CryptoNetwork) {
			onNetwork = append(onNetwork, d)
		}
	}
	raw, err := json.Marshal(onNetwork)
	if err != nil {
		// the polling log is still written, without the deposit list
		p.Logger.Errorf("Failed to encode deposits invoice_id:%v: %v", invoice.ID, err)
		raw = nil
	}

	for _, deposit := range onNetwork {
		if deposit.Status == common.DepositStatusFailed {
			continue
		}
		if p.Matcher.DetectDuplicatePayment(deposit.Amount, deposit.Currency, deposit.Network, deposit.TxHash, deposit.Timestamp, existing) {
			continue
		}
		if !p.Matcher.WithinTolerance(deposit.Amount, invoice.CryptoAmount) {
			continue
		}

		payment, err := p.HandleDetectedPayment(ctx, invoice, deposit)
		if err != nil {
			return false, err
		}
		if payment == nil {
			// recorded earlier, possibly against another invoice
			continue
		}
		p.logPolling(ctx, PollingEvent{
			InvoiceID:     invoice.ID,
			Status:        common.PollStatusPaymentFound,
			DepositsFound: len(onNetwork),
			RawResponse:   raw,
		})
		return true, nil
	}

	p.logPolling(ctx, PollingEvent{
		InvoiceID:     invoice.ID,
		Status:        common.PollStatusNoPayment,
		DepositsFound: len(onNetwork),
		RawResponse:   raw,
	})
	return false, nil
}

func (p *Poller) logPolling(ctx context.Context, event PollingEvent) {
	if err := p.Repo.LogPollingEvent(ctx, event); err != nil {
		p.Logger.Errorf("Failed to write polling log invoice_id:%v status:%s: %v", event.InvoiceID, event.Status, err)
	}
}

// HandleDetectedPayment records deposit as a payment of invoice and moves the
// invoice to paid or partially paid depending on the confirmations.
// It returns nil without error when the transaction hash is already known.
func (p *Poller) HandleDetectedPayment(ctx context.Context, invoice *models.Invoice, deposit exchange.Deposit) (*models.PaymentTransaction, error) {
	if deposit.TxHash != "" {
		_, err := p.Repo.GetPaymentByTxHash(ctx, deposit.TxHash)
		if err == nil {
			p.Logger.Debugf("Payment already recorded tx_hash:%s invoice_id:%v", deposit.TxHash, invoice.ID)
			return nil, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("look up tx %s: %w", deposit.TxHash, err)
		}
	}

	now := p.now()
	required := p.Exchange.GetRequiredConfirmations(deposit.Currency, deposit.Network)
	payment := &models.PaymentTransaction{
		InvoiceID:             invoice.ID,
		TransactionHash:       deposit.TxHash,
		AmountReceived:        deposit.Amount,
		Currency:              exchange.NormalizeCurrency(deposit.Currency),
		Network:               exchange.NormalizeNetwork(deposit.Network),
		DepositAddress:        deposit.Address,
		Status:                models.PaymentStatusFor(deposit.Confirmations, required),
		Confirmations:         deposit.Confirmations,
		RequiredConfirmations: required,
		DetectedAt:            now,
		RawPayload:            deposit.Raw,
	}
	if payment.DepositAddress == "" {
		payment.DepositAddress = invoice.DepositAddress
	}
	if !deposit.Timestamp.IsZero() {
		payment.DepositedAt = bun.NullTime{Time: deposit.Timestamp}
	}

	invoiceStatus := common.InvoiceStatusPartiallyPaid
	var paidAt *time.Time
	if payment.IsConfirmed() {
		payment.ConfirmedAt = bun.NullTime{Time: now}
		invoiceStatus = common.InvoiceStatusPaid
		paidAt = &now
	}

	// the insert and the invoice update share a transaction, a confirmed
	// payment is finalized here rather than in a second step
	transitioned, err := p.Repo.RecordPayment(ctx, payment, invoiceStatus, paidAt)
	if errors.Is(err, ErrDuplicateTransaction) {
		p.Logger.Debugf("Payment already recorded tx_hash:%s invoice_id:%v", deposit.TxHash, invoice.ID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("record payment for invoice %d: %w", invoice.ID, err)
	}
	if transitioned {
		invoice.Status = invoiceStatus
		if paidAt != nil {
			invoice.PaidAt = bun.NullTime{Time: *paidAt}
		}
	}

	p.paymentsDetected.Add(1)
	p.Logger.Infof("Payment detected invoice_id:%v payment_id:%v tx_hash:%s amount:%s confirmations:%d/%d status:%s",
		invoice.ID, payment.ID, payment.TransactionHash, payment.AmountReceived, payment.Confirmations, required, payment.Status)
	p.notify(ctx, common.EventPaymentDetected, invoice, payment)

	if payment.IsConfirmed() {
		p.paymentsConfirmed.Add(1)
		p.Logger.Infof("Invoice paid invoice_id:%v payment_id:%v", invoice.ID, payment.ID)
		p.notify(ctx, common.EventPaymentConfirmed, invoice, payment)
	}
	return payment, nil
}
