package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookTransportDispatchSuccess(t *testing.T) {
	t.Parallel()

	var gotBody webhookRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr, err := NewWebhookTransport(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookTransport() error = %v", err)
	}

	if err := tr.Dispatch(context.Background(), "hello chat"); err != nil {
		t.Fatalf("Dispatch() unexpected error: %v", err)
	}
	if gotBody.Content != "hello chat" {
		t.Fatalf("content = %q, want %q", gotBody.Content, "hello chat")
	}
}

func TestWebhookTransportDispatchServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("try later"))
	}))
	defer server.Close()

	tr, err := NewWebhookTransport(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookTransport() error = %v", err)
	}

	dispatchErr := tr.Dispatch(context.Background(), "hello")
	var transportErr *Error
	if !errors.As(dispatchErr, &transportErr) {
		t.Fatalf("Dispatch() error = %v, want *Error", dispatchErr)
	}
	if transportErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("StatusCode = %d, want 503", transportErr.StatusCode)
	}
	if !transportErr.Transient {
		t.Fatal("5xx should be classified as transient")
	}
}

func TestWebhookTransportDispatchClientError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	tr, err := NewWebhookTransport(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookTransport() error = %v", err)
	}

	dispatchErr := tr.Dispatch(context.Background(), "hello")
	var transportErr *Error
	if !errors.As(dispatchErr, &transportErr) {
		t.Fatalf("Dispatch() error = %v, want *Error", dispatchErr)
	}
	if transportErr.Transient {
		t.Fatal("4xx should not be classified as transient")
	}
}

func TestWebhookTransportTooManyRequestsIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	tr, err := NewWebhookTransport(server.URL)
	if err != nil {
		t.Fatalf("NewWebhookTransport() error = %v", err)
	}

	if !IsTransient(tr.Dispatch(context.Background(), "hello")) {
		t.Fatal("429 should be classified as transient")
	}
}

func TestNewWebhookTransportValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewWebhookTransport(""); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
	if _, err := NewWebhookTransport("://bad"); err == nil {
		t.Fatal("expected error for invalid endpoint")
	}
	if _, err := NewWebhookTransportWithClient("https://example.com/hook", nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}
