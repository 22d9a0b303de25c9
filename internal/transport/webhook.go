package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultWebhookTimeout = 10 * time.Second

type webhookRequest struct {
	Content string `json:"content"`
}

var _ Transport = (*WebhookTransport)(nil)

// WebhookTransport posts each message to an HTTP endpoint that relays it
// to the chat service.
type WebhookTransport struct {
	client   *resty.Client
	endpoint string
}

func NewWebhookTransport(endpoint string) (*WebhookTransport, error) {
	client := resty.New()
	client.SetTimeout(defaultWebhookTimeout)
	client.SetRetryCount(0)

	return NewWebhookTransportWithClient(endpoint, client)
}

func NewWebhookTransportWithClient(endpoint string, client *resty.Client) (*WebhookTransport, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("webhook endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid webhook endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultWebhookTimeout)
	}
	client.SetRetryCount(0)

	return &WebhookTransport{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (t *WebhookTransport) Dispatch(ctx context.Context, text string) error {
	if t == nil || t.client == nil {
		return &Error{Message: "webhook transport is not initialized"}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	response, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(webhookRequest{Content: text}).
		Post(t.endpoint)
	if err != nil {
		return &Error{
			Message:   "webhook request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return &Error{
			Message:   "webhook returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	return &Error{
		StatusCode: statusCode,
		Message:    webhookErrorMessage(statusCode, strings.TrimSpace(response.String())),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func (t *WebhookTransport) Close() error {
	return nil
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func webhookErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("webhook returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}
