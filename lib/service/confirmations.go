package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dpyhq/cryptobill/common"
	"github.com/dpyhq/cryptobill/db/models"
	"github.com/getsentry/sentry-go"
	"github.com/uptrace/bun"
)

// CheckConfirmationsUpdate asks the exchange for the current confirmation
// count of every pending or detected payment and stores increases. Payments that reach
// their threshold are finalized. It returns the number of payments updated.
func (p *Poller) CheckConfirmationsUpdate(ctx context.Context) (int, error) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	payments, err := p.Repo.GetUnconfirmedPayments(ctx)
	if err != nil {
		return 0, fmt.Errorf("load unconfirmed payments: %w", err)
	}
	updated := 0
	for i := range payments {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
		payment := &payments[i]
		if payment.TransactionHash == "" {
			continue
		}
		changed, err := p.refreshConfirmations(ctx, payment)
		if err != nil {
			p.errors.Add(1)
			p.Logger.Errorf("Failed to refresh confirmations payment_id:%v tx_hash:%s: %v", payment.ID, payment.TransactionHash, err)
			sentry.CaptureException(err)
			continue
		}
		if changed {
			updated++
		}
	}
	if updated > 0 {
		p.Logger.Infof("Updated confirmations of %d payments", updated)
	}
	return updated, nil
}

func (p *Poller) refreshConfirmations(ctx context.Context, payment *models.PaymentTransaction) (bool, error) {
	deposit, err := p.Exchange.VerifyTransactionManually(ctx, payment.TransactionHash, payment.Currency)
	if err != nil {
		return false, err
	}
	if deposit == nil {
		p.Logger.Warnf("Transaction no longer reported by the exchange payment_id:%v tx_hash:%s", payment.ID, payment.TransactionHash)
		return false, nil
	}
	if deposit.Confirmations <= payment.Confirmations {
		return false, nil
	}

	release, err := p.lockInvoice(ctx, payment.InvoiceID)
	if err != nil {
		return false, err
	}
	defer release()

	// manual verification may have confirmed it since the sweep loaded it
	current, err := p.Repo.GetPaymentByTxHash(ctx, payment.TransactionHash)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reload payment %d: %w", payment.ID, err)
	}
	if current.Status == common.PaymentStatusConfirmed || deposit.Confirmations <= current.Confirmations {
		return false, nil
	}
	payment = current

	if deposit.Confirmations >= payment.RequiredConfirmations {
		return p.finalizePayment(ctx, payment, deposit.Confirmations)
	}

	status := models.PaymentStatusFor(deposit.Confirmations, payment.RequiredConfirmations)
	if err := p.Repo.UpdatePaymentConfirmations(ctx, payment.ID, deposit.Confirmations, status); err != nil {
		return false, fmt.Errorf("update confirmations of payment %d: %w", payment.ID, err)
	}
	p.Logger.Debugf("Confirmations updated payment_id:%v confirmations:%d/%d", payment.ID, deposit.Confirmations, payment.RequiredConfirmations)
	return true, nil
}

// finalizePayment confirms payment and marks its invoice paid. It reports
// false when another path confirmed the payment first.
func (p *Poller) finalizePayment(ctx context.Context, payment *models.PaymentTransaction, confirmations int) (bool, error) {
	now := p.now()
	transitioned, err := p.Repo.ConfirmPayment(ctx, payment, confirmations, now)
	if errors.Is(err, ErrAlreadyConfirmed) {
		p.Logger.Debugf("Payment already confirmed payment_id:%v", payment.ID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("confirm payment %d: %w", payment.ID, err)
	}
	payment.Confirmations = confirmations
	payment.Status = common.PaymentStatusConfirmed
	payment.ConfirmedAt = bun.NullTime{Time: now}
	p.paymentsConfirmed.Add(1)

	invoice, err := p.Repo.GetInvoice(ctx, payment.InvoiceID)
	if err != nil {
		// the payment is confirmed already, only the notification is lost
		p.Logger.Errorf("Failed to load invoice for notification invoice_id:%v: %v", payment.InvoiceID, err)
		return true, nil
	}
	if !transitioned {
		p.Logger.Warnf("Payment confirmed but invoice was not pending invoice_id:%v status:%s", invoice.ID, invoice.Status)
	}
	p.Logger.Infof("Invoice paid invoice_id:%v payment_id:%v confirmations:%d", invoice.ID, payment.ID, confirmations)
	p.notify(ctx, common.EventPaymentConfirmed, invoice, payment)
	return true, nil
}
