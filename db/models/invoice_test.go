package models

import (
	"testing"
	"time"

	"github.com/dpyhq/cryptobill/common"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
)

func TestInvoiceTransitions(t *testing.T) {
	sent := &Invoice{Status: common.InvoiceStatusSent}
	assert.True(t, sent.CanTransitionTo(common.InvoiceStatusPartiallyPaid))
	assert.True(t, sent.CanTransitionTo(common.InvoiceStatusPaid))
	assert.True(t, sent.CanTransitionTo(common.InvoiceStatusOverdue))
	assert.False(t, sent.CanTransitionTo(common.InvoiceStatusDraft))

	partial := &Invoice{Status: common.InvoiceStatusPartiallyPaid}
	assert.True(t, partial.CanTransitionTo(common.InvoiceStatusPaid))
	assert.False(t, partial.CanTransitionTo(common.InvoiceStatusSent))

	paid := &Invoice{Status: common.InvoiceStatusPaid}
	assert.True(t, paid.IsTerminal())
	assert.False(t, paid.CanTransitionTo(common.InvoiceStatusOverdue))
	assert.False(t, paid.CanTransitionTo(common.InvoiceStatusPartiallyPaid))

	cancelled := &Invoice{Status: common.InvoiceStatusCancelled}
	assert.True(t, cancelled.IsTerminal())
	assert.False(t, cancelled.CanTransitionTo(common.InvoiceStatusPaid))
}

func TestInvoiceIsPollable(t *testing.T) {
	for status, expected := range map[string]bool{
		common.InvoiceStatusDraft:         false,
		common.InvoiceStatusSent:          true,
		common.InvoiceStatusPartiallyPaid: true,
		common.InvoiceStatusPaid:          false,
		common.InvoiceStatusOverdue:       false,
		common.InvoiceStatusCancelled:     false,
	} {
		inv := &Invoice{Status: status}
		assert.Equal(t, expected, inv.IsPollable(), status)
	}
}

func TestSourceStatusesFor(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{common.InvoiceStatusSent, common.InvoiceStatusPartiallyPaid, common.InvoiceStatusOverdue},
		SourceStatusesFor(common.InvoiceStatusPaid))
	assert.ElementsMatch(t,
		[]string{common.InvoiceStatusSent, common.InvoiceStatusPartiallyPaid},
		SourceStatusesFor(common.InvoiceStatusOverdue))
	assert.Empty(t, SourceStatusesFor(common.InvoiceStatusCancelled))
}

func TestPaymentStatusFor(t *testing.T) {
	assert.Equal(t, common.PaymentStatusPending, PaymentStatusFor(0, 3))
	assert.Equal(t, common.PaymentStatusDetected, PaymentStatusFor(1, 3))
	assert.Equal(t, common.PaymentStatusDetected, PaymentStatusFor(2, 3))
	assert.Equal(t, common.PaymentStatusConfirmed, PaymentStatusFor(3, 3))
	assert.Equal(t, common.PaymentStatusConfirmed, PaymentStatusFor(25, 20))
}

func TestPaymentReferenceTime(t *testing.T) {
	detected := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	p := &PaymentTransaction{DetectedAt: detected}
	assert.Equal(t, detected, p.ReferenceTime())

	deposited := detected.Add(-time.Minute)
	p.DepositedAt = bun.NullTime{Time: deposited}
	assert.Equal(t, deposited, p.ReferenceTime())
}
