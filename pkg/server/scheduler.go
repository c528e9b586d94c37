package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/versal-platform/botlogic/pkg/bot"
	"github.com/versal-platform/botlogic/pkg/logging"
)

// Deliverer pushes sweep output to the chat transport.
type Deliverer interface {
	Deliver(ctx context.Context, items []bot.Outbound) error
}

// Scheduler runs both reconciliation sweeps on a fixed interval and
// hands their output to a Deliverer. It exists for deployments where
// the transport does not call the /tick endpoints itself.
type Scheduler struct {
	bot       Bot
	deliverer Deliverer
	interval  time.Duration
	logger    logging.Logger
}

// NewScheduler creates a sweep scheduler.
func NewScheduler(b Bot, d Deliverer, interval time.Duration, logger logging.Logger) *Scheduler {
	return &Scheduler{
		bot:       b,
		deliverer: d,
		interval:  interval,
		logger:    logger.WithModule("scheduler"),
	}
}

// Run blocks until the context is cancelled, sweeping every interval.
// A failed delivery is logged and dropped; the sweeps themselves stay
// idempotent, so login outcomes lost here surface on the next /message.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("Starting sweep scheduler", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweep scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	items := s.bot.RunLoginSweep(ctx)
	items = append(items, s.bot.RunNotificationSweep(ctx)...)
	if len(items) == 0 {
		return
	}
	if err := s.deliverer.Deliver(ctx, items); err != nil {
		s.logger.Error("Sweep delivery failed", "error", err, "items", len(items))
	}
}

// WebhookDeliverer POSTs sweep output to the transport's webhook, one
// JSON body per item.
type WebhookDeliverer struct {
	url    string
	http   *http.Client
	logger logging.Logger
}

// NewWebhookDeliverer creates a deliverer for the given webhook URL.
func NewWebhookDeliverer(url string, timeout time.Duration, logger logging.Logger) *WebhookDeliverer {
	return &WebhookDeliverer{
		url:    url,
		http:   &http.Client{Timeout: timeout},
		logger: logger.WithModule("webhook"),
	}
}

// Deliver posts every item, continuing past individual failures and
// returning the first error seen.
func (d *WebhookDeliverer) Deliver(ctx context.Context, items []bot.Outbound) error {
	var firstErr error
	for _, item := range items {
		if err := d.post(ctx, item); err != nil {
			d.logger.Warn("Webhook delivery failed", "chat_id", item.ChatID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (d *WebhookDeliverer) post(ctx context.Context, item bot.Outbound) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("webhook: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: status %d", resp.StatusCode)
	}
	return nil
}
