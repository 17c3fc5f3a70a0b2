package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dpyhq/cryptobill/common"
)

// CheckOverdueInvoices moves sent and partially paid invoices whose due date
// lies more than the overdue grace period in the past to overdue, and returns
// how many moved. The grace period comes from the overdue_days config key
// when it is set, from OverdueDays otherwise.
func (p *Poller) CheckOverdueInvoices(ctx context.Context) (int, error) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	days := p.overdueDays(ctx)
	cutoff := p.now().AddDate(0, 0, -days)
	count, err := p.Repo.MarkOverdue(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("mark overdue invoices: %w", err)
	}
	if count > 0 {
		p.Logger.Infof("Marked %d invoices as overdue overdue_days:%d", count, days)
	}
	return count, nil
}

func (p *Poller) overdueDays(ctx context.Context) int {
	days := p.Config.OverdueDays
	value, err := p.Repo.GetConfig(ctx, common.ConfigKeyOverdueDays)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			p.Logger.Warnf("Failed to read config key:%s, using %d: %v", common.ConfigKeyOverdueDays, days, err)
		}
		return days
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		p.Logger.Warnf("Invalid config value key:%s value:%q, using %d", common.ConfigKeyOverdueDays, value, days)
		return days
	}
	return parsed
}
