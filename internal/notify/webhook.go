package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/symptom-diagnosis-mcp-server/internal/domain"
)

// WebhookNotifier POSTs alerts as JSON to a configured URL.
type WebhookNotifier struct {
	url        string
	httpClient *resty.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewWebhookNotifier creates a new webhook notifier
func NewWebhookNotifier(config domain.WebhookConfig, logger *logrus.Logger) *WebhookNotifier {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 5
	}

	client := resty.New().
		SetTimeout(config.Timeout).
		SetRetryCount(config.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &WebhookNotifier{
		url:        config.URL,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimit),
		logger:     logger,
	}
}

func (w *WebhookNotifier) NotifyEmergency(ctx context.Context, alert *domain.EmergencyAlert) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook rate limit wait: %w", err)
	}

	resp, err := w.httpClient.R().
		SetContext(ctx).
		SetBody(alert).
		Post(w.url)
	if err != nil {
		w.logger.WithError(err).WithField("alert_id", alert.ID).Error("Webhook delivery failed")
		return fmt.Errorf("posting alert to webhook: %w", err)
	}

	if resp.IsError() {
		w.logger.WithFields(logrus.Fields{
			"alert_id":    alert.ID,
			"status_code": resp.StatusCode(),
		}).Error("Webhook rejected alert")
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}

	w.logger.WithField("alert_id", alert.ID).Debug("Alert delivered to webhook")
	return nil
}
