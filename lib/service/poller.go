package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dpyhq/cryptobill/common"
	"github.com/dpyhq/cryptobill/exchange"
	"github.com/dpyhq/cryptobill/lib/locks"
	"github.com/dpyhq/cryptobill/lib/matcher"
	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"github.com/ziflex/lecho/v3"
)

// Poller reconciles exchange deposits against pending invoices.
//
// A single worker goroutine runs the detection cycle every PollInterval and,
// on the same goroutine, the confirmation and overdue sweeps. All three hold
// cycleMu, so they never overlap. Manual verification may run from any
// goroutine; it shares the per-invoice Locker with the worker.
type Poller struct {
	Config   *Config
	Repo     InvoiceRepository
	Exchange exchange.Client
	Matcher  *matcher.Matcher
	Locker   locks.Locker
	Notifier Notifier
	Logger   *lecho.Logger

	validate *validator.Validate
	now      func() time.Time

	cycleMu sync.Mutex

	stateMu   sync.Mutex
	running   bool
	stopCh    chan struct{}
	done      chan struct{}
	cancel    context.CancelFunc
	startedAt time.Time
	lastPoll  time.Time

	totalPolls        atomic.Int64
	paymentsDetected  atomic.Int64
	paymentsConfirmed atomic.Int64
	errors            atomic.Int64
}

type PollerOption func(*Poller)

func WithLocker(locker locks.Locker) PollerOption {
	return func(p *Poller) {
		p.Locker = locker
	}
}

func WithNotifier(notifier Notifier) PollerOption {
	return func(p *Poller) {
		p.Notifier = notifier
	}
}

func WithLogger(logger *lecho.Logger) PollerOption {
	return func(p *Poller) {
		p.Logger = logger
	}
}

func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) {
		p.now = now
	}
}

func NewPoller(c *Config, repo InvoiceRepository, exchangeClient exchange.Client, opts ...PollerOption) *Poller {
	p := &Poller{
		Config:   c,
		Repo:     repo,
		Exchange: exchangeClient,
		Matcher:  matcher.NewMatcher(c.MatcherConfig()),
		Locker:   locks.NewLocal(),
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.Logger == nil {
		p.Logger = lecho.New(io.Discard)
	}
	return p
}

// Start launches the worker. Calling it on a running poller does nothing.
func (p *Poller) Start(ctx context.Context) error {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.running {
		return nil
	}
	if p.Config.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}

	workCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.stopCh = make(chan struct{})
	p.done = make(chan struct{})
	p.cancel = cancel
	p.startedAt = p.now()

	go p.run(workCtx, p.stopCh, p.done)
	p.Logger.Infof("Payment poller started poll_interval:%s", p.Config.PollInterval)
	return nil
}

// Stop asks the worker to finish the invoice it is working on and waits up
// to StopTimeout for it. Calling it on a stopped poller does nothing.
func (p *Poller) Stop() error {
	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	done, cancel := p.done, p.cancel
	p.stateMu.Unlock()

	timeout := p.Config.StopTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	select {
	case <-done:
		cancel()
		p.Logger.Info("Payment poller stopped")
		return nil
	case <-time.After(timeout):
		// last resort, aborts in-flight exchange calls and open transactions
		cancel()
		p.Logger.Errorf("Payment poller did not stop within %s", timeout)
		return ErrStopTimeout
	}
}

func (p *Poller) IsRunning() bool {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.running
}

func (p *Poller) run(ctx context.Context, stopCh <-chan struct{}, done chan struct{}) {
	defer func() {
		// a cancelled parent context ends the worker without Stop
		p.stateMu.Lock()
		if p.done == done {
			p.running = false
		}
		p.stateMu.Unlock()
		close(done)
	}()
	ticker := time.NewTicker(p.Config.PollInterval)
	defer ticker.Stop()

	var lastConfirmationCheck, lastOverdueCheck time.Time
	for {
		p.runCycle(ctx, stopCh)

		if stopping(stopCh) {
			return
		}
		if p.due(lastConfirmationCheck, p.Config.ConfirmationCheckInterval) {
			lastConfirmationCheck = p.now()
			if _, err := p.CheckConfirmationsUpdate(ctx); err != nil {
				p.Logger.Errorf("Confirmation check failed: %v", err)
				sentry.CaptureException(err)
			}
		}
		if p.due(lastOverdueCheck, p.Config.OverdueCheckInterval) {
			lastOverdueCheck = p.now()
			if _, err := p.CheckOverdueInvoices(ctx); err != nil {
				p.Logger.Errorf("Overdue check failed: %v", err)
				sentry.CaptureException(err)
			}
		}

		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) due(last time.Time, interval time.Duration) bool {
	if interval <= 0 {
		return false
	}
	return last.IsZero() || p.now().Sub(last) >= interval
}

func stopping(stopCh <-chan struct{}) bool {
	if stopCh == nil {
		return false
	}
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}

type CycleResult struct {
	InvoicesChecked  int           `json:"invoices_checked"`
	PaymentsDetected int           `json:"payments_detected"`
	Errors           int           `json:"errors"`
	Duration         time.Duration `json:"duration"`
}

// RunCycle reconciles every pending invoice once, one after the other.
// A failing invoice is logged and counted, the cycle goes on with the next one.
func (p *Poller) RunCycle(ctx context.Context) CycleResult {
	return p.runCycle(ctx, nil)
}

func (p *Poller) runCycle(ctx context.Context, stopCh <-chan struct{}) (result CycleResult) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	start := p.now()
	p.totalPolls.Add(1)
	defer func() {
		end := p.now()
		p.stateMu.Lock()
		p.lastPoll = end
		p.stateMu.Unlock()
		result.Duration = end.Sub(start)
	}()

	invoices, err := p.Repo.GetPendingInvoices(ctx)
	if err != nil {
		p.errors.Add(1)
		result.Errors++
		p.Logger.Errorf("Failed to load pending invoices: %v", err)
		sentry.CaptureException(err)
		return result
	}
	if len(invoices) == 0 {
		p.Logger.Debug("No pending invoices to check")
		return result
	}
	p.Logger.Debugf("Checking %d pending invoices", len(invoices))

	for i := range invoices {
		if stopping(stopCh) || ctx.Err() != nil {
			break
		}
		invoice := &invoices[i]
		result.InvoicesChecked++
		detected, err := p.reconcileInvoice(ctx, invoice)
		if err != nil {
			result.Errors++
			p.recordReconcileError(ctx, invoice.ID, err)
			continue
		}
		if detected {
			result.PaymentsDetected++
		}
	}
	return result
}

func (p *Poller) recordReconcileError(ctx context.Context, invoiceID int64, err error) {
	p.errors.Add(1)
	tag := common.PollStatusError
	if exchange.IsAPIError(err) {
		tag = common.PollStatusAPIError
	}
	p.Logger.Errorf("Failed to reconcile invoice invoice_id:%v status:%s: %v", invoiceID, tag, err)
	sentry.CaptureException(err)
	logErr := p.Repo.LogPollingEvent(ctx, PollingEvent{
		InvoiceID:    invoiceID,
		Status:       tag,
		ErrorMessage: err.Error(),
	})
	if logErr != nil {
		p.Logger.Errorf("Failed to write polling log invoice_id:%v: %v", invoiceID, logErr)
	}
}
