package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"algotrade/internal/domain"
	"algotrade/internal/exchange"
	"algotrade/internal/exchangeapi"
)

func TestHandleWebhook_RejectsEmptyBody(t *testing.T) {
	s := New(":0", exchange.New(func(ctx context.Context, creds domain.Credentials) (exchangeapi.Port, error) {
		return nil, nil
	}), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(""))
	rec := httptest.NewRecorder()
	s.handleWebhook(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleWebhook_AcceptsNonEmptyBody(t *testing.T) {
	s := New(":0", exchange.New(func(ctx context.Context, creds domain.Credentials) (exchangeapi.Port, error) {
		return nil, nil
	}), nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("deribit(BTC-PERPETUAL) { wait(duration=1s); }"))
	rec := httptest.NewRecorder()
	s.handleWebhook(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	time.Sleep(10 * time.Millisecond)
}

func TestHandleHealthz_AlwaysOK(t *testing.T) {
	s := New(":0", nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
