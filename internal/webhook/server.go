// Package webhook is the host-supplied HTTP transport for inbound
// messages (spec §1 names this out of scope for the core: "the core
// receives a string plus a credentials list"). It is the thinnest
// possible adapter from an HTTP POST body to exchange.Manager.ExecuteMessage.
package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"algotrade/internal/domain"
	"algotrade/internal/exchange"
)

const defaultShutdownGrace = 10 * time.Second

// Server listens for webhook POSTs and forwards each body to the
// manager. Each request is handed off to ExecuteMessage in its own
// goroutine so the HTTP response doesn't wait on algo orders that run
// for minutes or hours.
type Server struct {
	Manager     *exchange.Manager
	Credentials []domain.Credentials
	Logger      *slog.Logger

	httpServer *http.Server
}

// New builds a Server bound to addr, serving POST /webhook and
// GET /healthz.
func New(addr string, manager *exchange.Manager, creds []domain.Credentials, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{Manager: manager, Credentials: creds, Logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	return s
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		http.Error(w, "empty body", http.StatusBadRequest)
		return
	}

	msg := string(body)
	go s.Manager.ExecuteMessage(context.Background(), msg, s.Credentials)

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// ListenAndServe blocks serving HTTP until ctx is cancelled, then
// shuts the server down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("webhook server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownGrace)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}
