package service

import (
	"time"
)

// Statistics is a point-in-time copy of the poller counters.
type Statistics struct {
	TotalPolls        int64      `json:"total_polls"`
	PaymentsDetected  int64      `json:"payments_detected"`
	PaymentsConfirmed int64      `json:"payments_confirmed"`
	Errors            int64      `json:"errors"`
	LastPollTime      *time.Time `json:"last_poll_time"`
	IsRunning         bool       `json:"is_running"`
	PollInterval      float64    `json:"poll_interval"`
	UptimeSeconds     float64    `json:"uptime_seconds"`
}

func (p *Poller) Statistics() Statistics {
	stats := Statistics{
		TotalPolls:        p.totalPolls.Load(),
		PaymentsDetected:  p.paymentsDetected.Load(),
		PaymentsConfirmed: p.paymentsConfirmed.Load(),
		Errors:            p.errors.Load(),
		PollInterval:      p.Config.PollInterval.Seconds(),
	}
	p.stateMu.Lock()
	if !p.lastPoll.IsZero() {
		last := p.lastPoll
		stats.LastPollTime = &last
	}
	stats.IsRunning = p.running
	if p.running {
		stats.UptimeSeconds = p.now().Sub(p.startedAt).Seconds()
	}
	p.stateMu.Unlock()
	return stats
}
