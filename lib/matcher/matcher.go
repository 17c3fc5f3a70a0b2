// Package matcher links incoming deposits to pending invoices.
//
// Many invoices share one exchange deposit address, so the only thing that
// tells two payments apart is the amount. Every invoice amount carries a tiny
// invoice-specific offset (see CalculateUniqueAmount), which lets the matcher
// use a very tight tolerance band:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	result := m.FindMatchingInvoice(deposit.Amount, "USDT", "TRC20", pending, time.Now())
//	if result != nil {
//		invoice := result.Invoice
//	}
//
// Nothing in this package performs I/O.
package matcher

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dpyhq/cryptobill/db/models"
	"github.com/dpyhq/cryptobill/exchange"
	"github.com/shopspring/decimal"
)

const (
	DefaultPrecision = 8

	uniqueSuffixDigits = 4
)

type Config struct {
	// AmountTolerance is the accepted relative deviation from the expected amount
	AmountTolerance decimal.Decimal
	// DuplicateWindow is how close two identical hash-less deposits must be to count as one
	DuplicateWindow        time.Duration
	DuplicateAmountEpsilon decimal.Decimal
	RecencyHorizonDays     float64
	MatchQualityWeight     float64
	RecencyWeight          float64
}

func DefaultConfig() Config {
	return Config{
		AmountTolerance:        decimal.NewFromFloat(0.001),
		DuplicateWindow:        300 * time.Second,
		DuplicateAmountEpsilon: decimal.New(1, -8),
		RecencyHorizonDays:     30,
		MatchQualityWeight:     0.7,
		RecencyWeight:          0.3,
	}
}

type Matcher struct {
	config Config
}

func NewMatcher(config Config) *Matcher {
	return &Matcher{
		config: config,
	}
}

func (m *Matcher) Config() Config {
	return m.config
}

type MatchResult struct {
	Invoice       *models.Invoice
	AmountDiff    decimal.Decimal
	MatchQuality  float64
	RecencyScore  float64
	CombinedScore float64
}

// WithinTolerance reports whether amount lies in expected ± expected*AmountTolerance.
func (m *Matcher) WithinTolerance(amount, expected decimal.Decimal) bool {
	return WithinRelativeTolerance(amount, expected, m.config.AmountTolerance)
}

func WithinRelativeTolerance(amount, expected, tolerance decimal.Decimal) bool {
	if !expected.IsPositive() {
		return false
	}
	band := expected.Mul(tolerance).Abs()
	return amount.Sub(expected).Abs().LessThanOrEqual(band)
}

// FindMatchingInvoice returns the best scoring invoice for a deposit, or nil.
// Equal scores keep the invoice that came first in pending.
func (m *Matcher) FindMatchingInvoice(amount decimal.Decimal, currency, network string, pending []models.Invoice, ts time.Time) *MatchResult {
	var best *MatchResult
	for _, candidate := range m.FindCandidates(amount, currency, network, pending, ts) {
		if best == nil || candidate.CombinedScore > best.CombinedScore {
			c := candidate
			best = &c
		}
	}
	return best
}

// FindCandidates returns every invoice the deposit could pay, in pending order.
func (m *Matcher) FindCandidates(amount decimal.Decimal, currency, network string, pending []models.Invoice, ts time.Time) []MatchResult {
	candidates := []MatchResult{}
	for i := range pending {
		inv := &pending[i]
		if exchange.NormalizeCurrency(inv.CryptoCurrency) != exchange.NormalizeCurrency(currency) {
			continue
		}
		if !exchange.SameNetwork(inv.CryptoNetwork, network) {
			continue
		}
		if !m.WithinTolerance(amount, inv.CryptoAmount) {
			continue
		}
		candidates = append(candidates, m.score(inv, amount, ts))
	}
	return candidates
}

func (m *Matcher) score(inv *models.Invoice, amount decimal.Decimal, ts time.Time) MatchResult {
	diff := amount.Sub(inv.CryptoAmount).Abs()
	matchQuality := 1 - diff.Div(inv.CryptoAmount).InexactFloat64()

	recency := 0.0
	if m.config.RecencyHorizonDays > 0 {
		daysSinceIssue := ts.Sub(inv.IssueDate).Hours() / 24
		recency = math.Min(1, math.Max(0, 1-daysSinceIssue/m.config.RecencyHorizonDays))
	}

	return MatchResult{
		Invoice:       inv,
		AmountDiff:    diff,
		MatchQuality:  matchQuality,
		RecencyScore:  recency,
		CombinedScore: m.config.MatchQualityWeight*matchQuality + m.config.RecencyWeight*recency,
	}
}

// DetectDuplicatePayment reports whether a deposit was already recorded: either
// the transaction hash is known, or an identical amount on the same
// currency/network was recorded within DuplicateWindow. The second rule
// catches hash-less deposits re-read by overlapping poll windows.
func (m *Matcher) DetectDuplicatePayment(amount decimal.Decimal, currency, network, txHash string, ts time.Time, existing []models.PaymentTransaction) bool {
	for i := range existing {
		p := &existing[i]
		if txHash != "" && p.TransactionHash != "" && strings.EqualFold(p.TransactionHash, txHash) {
			return true
		}
		if exchange.NormalizeCurrency(p.Currency) != exchange.NormalizeCurrency(currency) {
			continue
		}
		if !exchange.SameNetwork(p.Network, network) {
			continue
		}
		if !p.AmountReceived.Sub(amount).Abs().LessThan(m.config.DuplicateAmountEpsilon) {
			continue
		}
		gap := ts.Sub(p.ReferenceTime())
		if gap < 0 {
			gap = -gap
		}
		if gap < m.config.DuplicateWindow {
			return true
		}
	}
	return false
}

type AlertCandidate struct {
	InvoiceID      int64           `json:"invoice_id"`
	InvoiceNumber  string          `json:"invoice_number"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	AmountDiff     decimal.Decimal `json:"amount_diff"`
	MatchQuality   float64         `json:"match_quality"`
	CombinedScore  float64         `json:"combined_score"`
}

// AmbiguousPaymentAlert asks an operator to pick the invoice a deposit belongs to.
type AmbiguousPaymentAlert struct {
	Type           string           `json:"type"`
	TxHash         string           `json:"tx_hash,omitempty"`
	Amount         decimal.Decimal  `json:"amount"`
	Currency       string           `json:"currency"`
	Network        string           `json:"network"`
	Candidates     []AlertCandidate `json:"candidates"`
	RequiresReview bool             `json:"requires_manual_review"`
	Message        string           `json:"message"`
	CreatedAt      time.Time        `json:"created_at"`
}

const AlertTypeAmbiguousPayment = "ambiguous_payment"

// CreateAmbiguousPaymentAlert builds a review request for a deposit that
// matches several invoices, best candidate first.
func (m *Matcher) CreateAmbiguousPaymentAlert(amount decimal.Decimal, currency, network, txHash string, candidates []MatchResult, ts time.Time) AmbiguousPaymentAlert {
	sorted := make([]MatchResult, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CombinedScore > sorted[j].CombinedScore
	})

	alert := AmbiguousPaymentAlert{
		Type:           AlertTypeAmbiguousPayment,
		TxHash:         txHash,
		Amount:         amount,
		Currency:       exchange.NormalizeCurrency(currency),
		Network:        exchange.NormalizeNetwork(network),
		Candidates:     make([]AlertCandidate, 0, len(sorted)),
		RequiresReview: true,
		Message:        fmt.Sprintf("deposit of %s %s matches %d invoices", amount.String(), exchange.NormalizeCurrency(currency), len(sorted)),
		CreatedAt:      ts,
	}
	for _, c := range sorted {
		alert.Candidates = append(alert.Candidates, AlertCandidate{
			InvoiceID:      c.Invoice.ID,
			InvoiceNumber:  c.Invoice.InvoiceNumber,
			ExpectedAmount: c.Invoice.CryptoAmount,
			AmountDiff:     c.AmountDiff,
			MatchQuality:   c.MatchQuality,
			CombinedScore:  c.CombinedScore,
		})
	}
	return alert
}

// CalculateUniqueAmount adds the invoice's trailing four digits, scaled to
// 1e-8, to the base amount: DPY-2025-10-0007 turns 100 into 100.00000007.
// The invoice counter resets monthly, so invoices from different months can
// share an offset.
func CalculateUniqueAmount(base decimal.Decimal, invoiceNumber string, precision int32) (decimal.Decimal, error) {
	digits := make([]byte, 0, len(invoiceNumber))
	for i := 0; i < len(invoiceNumber); i++ {
		if invoiceNumber[i] >= '0' && invoiceNumber[i] <= '9' {
			digits = append(digits, invoiceNumber[i])
		}
	}
	if len(digits) == 0 {
		return decimal.Zero, fmt.Errorf("invoice number %q has no digits", invoiceNumber)
	}
	if len(digits) > uniqueSuffixDigits {
		digits = digits[len(digits)-uniqueSuffixDigits:]
	}
	suffix, err := decimal.NewFromString(string(digits))
	if err != nil {
		return decimal.Zero, err
	}
	fraction := suffix.Shift(-DefaultPrecision)
	return base.Add(fraction).Round(precision), nil
}
