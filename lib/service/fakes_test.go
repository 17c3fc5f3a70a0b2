package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dpyhq/cryptobill/common"
	"github.com/dpyhq/cryptobill/db/models"
	"github.com/dpyhq/cryptobill/exchange"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

// memoryRepo mirrors the conditional update rules of db.Store.
type memoryRepo struct {
	mu       sync.Mutex
	invoices map[int64]*models.Invoice
	payments []*models.PaymentTransaction
	logs     []PollingEvent
	config   map[string]string
	nextID   int64
}

func newMemoryRepo(invoices ...models.Invoice) *memoryRepo {
	r := &memoryRepo{
		invoices: map[int64]*models.Invoice{},
		config:   map[string]string{},
	}
	for i := range invoices {
		inv := invoices[i]
		r.invoices[inv.ID] = &inv
	}
	return r
}

func (r *memoryRepo) GetPendingInvoices(ctx context.Context) ([]models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []models.Invoice{}
	for _, inv := range r.invoices {
		if inv.IsPollable() {
			result = append(result, *inv)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DueDate.Equal(result[j].DueDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].DueDate.Before(result[j].DueDate)
	})
	return result, nil
}

func (r *memoryRepo) GetInvoice(ctx context.Context, id int64) (*models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *inv
	return &c, nil
}

func (r *memoryRepo) updateInvoiceStatus(id int64, status string, paidAt *time.Time) bool {
	inv, ok := r.invoices[id]
	if !ok || !inv.CanTransitionTo(status) {
		return false
	}
	inv.Status = status
	if paidAt != nil {
		inv.PaidAt = bun.NullTime{Time: *paidAt}
	}
	return true
}

func (r *memoryRepo) UpdateInvoiceStatus(ctx context.Context, id int64, status string, paidAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateInvoiceStatus(id, status, paidAt), nil
}

func (r *memoryRepo) MarkOverdue(ctx context.Context, dueBefore time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, inv := range r.invoices {
		if inv.IsPollable() && inv.DueDate.Before(dueBefore) {
			inv.Status = common.InvoiceStatusOverdue
			count++
		}
	}
	return count, nil
}

func (r *memoryRepo) GetPaymentsForInvoice(ctx context.Context, invoiceID int64) ([]models.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []models.PaymentTransaction{}
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *memoryRepo) GetPaymentByTxHash(ctx context.Context, txHash string) (*models.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.TransactionHash != "" && strings.EqualFold(p.TransactionHash, txHash) {
			c := *p
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepo) createPayment(payment *models.PaymentTransaction) (int64, error) {
	for _, p := range r.payments {
		if payment.TransactionHash != "" && p.TransactionHash == payment.TransactionHash {
			return 0, ErrDuplicateTransaction
		}
	}
	r.nextID++
	payment.ID = r.nextID
	c := *payment
	r.payments = append(r.payments, &c)
	return payment.ID, nil
}

func (r *memoryRepo) CreatePaymentTransaction(ctx context.Context, payment *models.PaymentTransaction) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createPayment(payment)
}

func (r *memoryRepo) UpdatePaymentConfirmations(ctx context.Context, id int64, confirmations int, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == id {
			p.Confirmations = confirmations
			if status != "" {
				p.Status = status
			}
			return nil
		}
	}
	return ErrNotFound
}

func (r *memoryRepo) GetUnconfirmedPayments(ctx context.Context) ([]models.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []models.PaymentTransaction{}
	for _, p := range r.payments {
		waiting := p.Status == common.PaymentStatusPending || p.Status == common.PaymentStatusDetected
		if waiting && p.Confirmations < p.RequiredConfirmations {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (r *memoryRepo) RecordPayment(ctx context.Context, payment *models.PaymentTransaction, invoiceStatus string, paidAt *time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.invoices[payment.InvoiceID]; !ok {
		return false, ErrNotFound
	}
	if _, err := r.createPayment(payment); err != nil {
		return false, err
	}
	return r.updateInvoiceStatus(payment.InvoiceID, invoiceStatus, paidAt), nil
}

func (r *memoryRepo) ConfirmPayment(ctx context.Context, payment *models.PaymentTransaction, confirmations int, confirmedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.ID == payment.ID {
			if p.Status == common.PaymentStatusConfirmed {
				return false, ErrAlreadyConfirmed
			}
			p.Confirmations = confirmations
			p.Status = common.PaymentStatusConfirmed
			p.ConfirmedAt = bun.NullTime{Time: confirmedAt}
			return r.updateInvoiceStatus(p.InvoiceID, common.InvoiceStatusPaid, &confirmedAt), nil
		}
	}
	return false, ErrNotFound
}

func (r *memoryRepo) LogPollingEvent(ctx context.Context, event PollingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, event)
	return nil
}

func (r *memoryRepo) GetConfig(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.config[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) invoice(id int64) models.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.invoices[id]
}

func (r *memoryRepo) paymentsFor(invoiceID int64) []models.PaymentTransaction {
	payments, _ := r.GetPaymentsForInvoice(context.Background(), invoiceID)
	return payments
}

func (r *memoryRepo) logsFor(invoiceID int64) []PollingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []PollingEvent{}
	for _, l := range r.logs {
		if l.InvoiceID == invoiceID {
			result = append(result, l)
		}
	}
	return result
}

var _ InvoiceRepository = (*memoryRepo)(nil)

// fakeExchange serves a fixed deposit list.
type fakeExchange struct {
	mu            sync.Mutex
	deposits      []exchange.Deposit
	historyErr    error
	latency       time.Duration
	historyCalls  int
	lastRequest   exchange.DepositHistoryRequest
	lookups       map[string]*exchange.Deposit
	lookupErr     error
	errByCurrency map[string]error
}

func (f *fakeExchange) GetDepositHistory(ctx context.Context, req exchange.DepositHistoryRequest) ([]exchange.Deposit, error) {
	if f.latency > 0 {
		time.Sleep(f.latency)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	f.lastRequest = req
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if err := f.errByCurrency[exchange.NormalizeCurrency(req.Currency)]; err != nil {
		return nil, err
	}
	result := []exchange.Deposit{}
	for _, d := range f.deposits {
		if exchange.NormalizeCurrency(d.Currency) == exchange.NormalizeCurrency(req.Currency) {
			result = append(result, d)
		}
	}
	return result, nil
}

func (f *fakeExchange) VerifyTransactionManually(ctx context.Context, txid, currency string) (*exchange.Deposit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if d, ok := f.lookups[strings.ToLower(txid)]; ok {
		c := *d
		return &c, nil
	}
	for _, d := range f.deposits {
		if strings.EqualFold(d.TxHash, txid) {
			c := d
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeExchange) GetRequiredConfirmations(currency, network string) int {
	return exchange.RequiredConfirmations(currency, network)
}

func (f *fakeExchange) setConfirmations(txHash string, confirmations int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.deposits {
		if f.deposits[i].TxHash == txHash {
			f.deposits[i].Confirmations = confirmations
		}
	}
}

var _ exchange.Client = (*fakeExchange)(nil)

var testNow = time.Date(2025, 10, 8, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func btcInvoice(id int64) models.Invoice {
	return models.Invoice{
		ID:               id,
		InvoiceNumber:    "DPY-2025-10-0001",
		Status:           common.InvoiceStatusSent,
		AmountUSD:        dec("500"),
		CryptoCurrency:   "BTC",
		CryptoAmount:     dec("0.005"),
		CryptoNetwork:    "BTC",
		DepositAddress:   "bc1qshared",
		IssueDate:        testNow.AddDate(0, 0, -2),
		DueDate:          testNow.AddDate(0, 0, 12),
		PaymentTolerance: dec("0.01"),
	}
}

func usdtInvoice(id int64, amount string) models.Invoice {
	return models.Invoice{
		ID:               id,
		InvoiceNumber:    "DPY-2025-10-0002",
		Status:           common.InvoiceStatusSent,
		AmountUSD:        dec("5"),
		CryptoCurrency:   "USDT",
		CryptoAmount:     dec(amount),
		CryptoNetwork:    "TRC20",
		DepositAddress:   "TShared",
		IssueDate:        testNow.AddDate(0, 0, -1),
		DueDate:          testNow.AddDate(0, 0, 14),
		PaymentTolerance: dec("0.01"),
	}
}

func btcDeposit(hash string, amount string, confirmations int) exchange.Deposit {
	return exchange.Deposit{
		TxHash:        hash,
		Amount:        dec(amount),
		Currency:      "BTC",
		Network:       "BTC",
		Confirmations: confirmations,
		Status:        common.DepositStatusPending,
		Timestamp:     testNow.Add(-time.Hour),
		Address:       "bc1qshared",
	}
}

type recordedEvents struct {
	mu     sync.Mutex
	events []PaymentEvent
}

func (r *recordedEvents) Notify(ctx context.Context, event PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordedEvents) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := []string{}
	for _, e := range r.events {
		names = append(names, e.Event)
	}
	return names
}

func newTestPoller(t *testing.T, repo InvoiceRepository, ex exchange.Client, opts ...PollerOption) *Poller {
	t.Helper()
	c := DefaultPollerConfig()
	c.PollInterval = 10 * time.Millisecond
	c.StopTimeout = 2 * time.Second
	opts = append([]PollerOption{
		WithClock(func() time.Time { return testNow }),
		WithLogger(lecho.New(io.Discard)),
	}, opts...)
	return NewPoller(c, repo, ex, opts...)
}
