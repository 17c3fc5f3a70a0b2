package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dpyhq/cryptobill/common"
	"github.com/getsentry/sentry-go"
	"github.com/ziflex/lecho/v3"
)

const webhookBufferSize = 100

type WebhookNotifier struct {
	URL        string
	HTTPClient *http.Client
	Logger     *lecho.Logger
}

func NewWebhookNotifier(url string, logger *lecho.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		URL:        url,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Logger:     logger,
	}
}

// StartWebhookSubscription posts every payment event published on ps to the
// webhook until ctx is done. Running it off the pubsub keeps a slow webhook
// from stalling the poller.
func (wh *WebhookNotifier) StartWebhookSubscription(ctx context.Context, ps *Pubsub) {
	wh.Logger.Infof("Starting webhook subscription with webhook url %s", wh.URL)
	detected := make(chan PaymentEvent, webhookBufferSize)
	confirmed := make(chan PaymentEvent, webhookBufferSize)
	detectedId := ps.Subscribe(common.EventPaymentDetected, detected)
	confirmedId := ps.Subscribe(common.EventPaymentConfirmed, confirmed)
	defer ps.Unsubscribe(detectedId, common.EventPaymentDetected)
	defer ps.Unsubscribe(confirmedId, common.EventPaymentConfirmed)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-detected:
			wh.postAndLog(ctx, event)
		case event := <-confirmed:
			wh.postAndLog(ctx, event)
		}
	}
}

func (wh *WebhookNotifier) postAndLog(ctx context.Context, event PaymentEvent) {
	if err := wh.Notify(ctx, event); err != nil {
		wh.Logger.Errorf("Webhook delivery failed event:%s invoice_id:%v: %v", event.Event, event.Invoice.ID, err)
		sentry.CaptureException(err)
	}
}

func (wh *WebhookNotifier) Notify(ctx context.Context, event PaymentEvent) error {
	payload := new(bytes.Buffer)
	if err := json.NewEncoder(payload).Encode(event); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := wh.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
	return nil
}

var _ Notifier = (*WebhookNotifier)(nil)
