// Package exchange owns the pool of open exchange connections and
// drives incoming webhook messages through the parser, dispatcher,
// and scheduler (spec §4.5). It is the boundary between the
// connection-agnostic core and whatever connector the host
// application supplies for each credentials entry.
package exchange

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"algotrade/internal/alertextractor"
	"algotrade/internal/commands"
	"algotrade/internal/domain"
	"algotrade/internal/exchangeapi"
	"algotrade/internal/parser"
	"algotrade/internal/scheduler"
	"algotrade/internal/storage"

	"github.com/google/uuid"
)

// Factory builds a Port for one credentials entry. Supplied by the
// host application; connectors themselves are out of scope here
// (spec §1).
type Factory func(ctx context.Context, creds domain.Credentials) (exchangeapi.Port, error)

// Handle is one open exchange connection, shared by every block that
// resolves to the same credentials identity.
type Handle struct {
	Creds     domain.Credentials
	Port      exchangeapi.Port
	Symbols   *domain.SymbolTable
	Registry  *domain.AlgoRegistry
	Scheduler *scheduler.Scheduler

	refs       int
	teardownAt *time.Timer
}

// Manager is the refcounted pool of Handles, keyed by
// domain.Credentials.PoolKey (spec §4.5). Opening the same credentials
// twice in quick succession reuses the existing connection instead of
// tearing it down and reopening it.
type Manager struct {
	mu      sync.Mutex
	handles map[string]*Handle

	Factory       Factory
	Notifier      commands.Notifier
	Audit         *storage.AuditStore
	MinDelay      time.Duration
	MaxDelay      time.Duration
	TeardownGrace time.Duration
	Logger        *slog.Logger
}

// New builds a Manager with the given connector factory. MinDelay,
// MaxDelay and TeardownGrace start at 1s, 30s and 500ms.
func New(factory Factory) *Manager {
	return &Manager{
		handles:       make(map[string]*Handle),
		Factory:       factory,
		MinDelay:      time.Second,
		MaxDelay:      30 * time.Second,
		TeardownGrace: 500 * time.Millisecond,
		Logger:        slog.Default(),
	}
}

// openExchange returns the Handle for creds, creating and
// initializing one if none is open, and cancels any pending teardown.
// Callers must pair this with closeExchange.
func (m *Manager) openExchange(ctx context.Context, creds domain.Credentials) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := creds.PoolKey()
	if h, ok := m.handles[key]; ok {
		if h.teardownAt != nil {
			h.teardownAt.Stop()
			h.teardownAt = nil
		}
		h.refs++
		return h, nil
	}

	port, err := m.Factory(ctx, creds)
	if err != nil {
		return nil, err
	}
	port = newResilientPort(creds.Exchange, port, m.Audit)
	if err := port.Init(ctx); err != nil {
		return nil, err
	}

	registry := domain.NewAlgoRegistry()
	h := &Handle{
		Creds:     creds,
		Port:      port,
		Symbols:   domain.NewSymbolTable(),
		Registry:  registry,
		Scheduler: scheduler.New(registry, m.MinDelay, m.MaxDelay),
		refs:      1,
	}
	m.handles[key] = h
	m.Logger.Info("exchange opened", slog.String("exchange", creds.Exchange), slog.String("name", creds.Name))
	return h, nil
}

// closeExchange drops a reference on h's credentials. Once the last
// reference drops, the connection is torn down after TeardownGrace
// rather than immediately, so a rapid run of blocks against the same
// exchange does not thrash the connection.
func (m *Manager) closeExchange(h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h.refs--
	if h.refs > 0 {
		return
	}

	key := h.Creds.PoolKey()
	h.teardownAt = time.AfterFunc(m.TeardownGrace, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if h.refs > 0 {
			return
		}
		delete(m.handles, key)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.Port.Terminate(ctx); err != nil {
				m.Logger.Warn("exchange terminate failed", slog.String("exchange", h.Creds.Exchange), slog.Any("error", err))
			}
		}()
		m.Logger.Info("exchange closed", slog.String("exchange", h.Creds.Exchange))
	})
}

// Shutdown waits for every in-flight sequence's background tasks
// across all open handles. Intended for graceful process exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.handles))
	for _, h := range m.handles {
		handles = append(handles, h)
	}
	m.mu.Unlock()

	for _, h := range handles {
		h.Scheduler.Wait()
	}
}

// ExecuteMessage parses msg, runs each resolved block's command
// sequence, and forwards the alert-extracted remainder to Notifier if
// the "{!}" marker is present (spec §4.4/§4.5/§6). Blocks that resolve
// to different exchanges run concurrently; blocks resolving to the
// same exchange run one after another, in message order.
func (m *Manager) ExecuteMessage(ctx context.Context, msg string, creds []domain.Credentials) {
	blocks := parser.ParseMessage(msg)

	groups := make(map[string][]parser.Block)
	var order []string
	for _, b := range blocks {
		c, ok := domain.FindCredentials(creds, b.Exchange)
		if !ok {
			m.Logger.Warn("no credentials matched block exchange", slog.String("exchange", b.Exchange))
			continue
		}
		key := c.PoolKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], b)
	}

	keyToCreds := make(map[string]domain.Credentials, len(creds))
	for _, c := range creds {
		keyToCreds[c.PoolKey()] = c
	}

	var wg sync.WaitGroup
	for _, key := range order {
		wg.Add(1)
		go func(key string, blocks []parser.Block) {
			defer wg.Done()
			m.runBlocksSerially(ctx, keyToCreds[key], blocks)
		}(key, groups[key])
	}
	wg.Wait()

	if text, ok := alertextractor.Extract(msg); ok && m.Notifier != nil {
		if err := m.Notifier.Send(ctx, text); err != nil {
			m.Logger.Warn("notify failed", slog.Any("error", err))
		}
	}
}

func (m *Manager) runBlocksSerially(ctx context.Context, creds domain.Credentials, blocks []parser.Block) {
	h, err := m.openExchange(ctx, creds)
	if err != nil {
		m.Logger.Warn("openExchange failed", slog.String("exchange", creds.Exchange), slog.Any("error", err))
		return
	}
	defer m.closeExchange(h)

	for _, b := range blocks {
		m.executeCommandSequence(ctx, h, b)
	}
}

// executeCommandSequence builds one Session and a Task per action in
// b, then runs them through h's Scheduler (spec §4.5). A panic from
// any single command is contained here so one runaway algo order
// cannot take the exchange's background pool, or any other exchange,
// down with it.
func (m *Manager) executeCommandSequence(ctx context.Context, h *Handle, b parser.Block) {
	defer func() {
		if r := recover(); r != nil {
			m.Logger.Error("command sequence panicked", slog.String("exchange", b.Exchange), slog.Any("panic", r))
		}
	}()

	if _, err := h.Port.AddSymbol(ctx, b.Symbol); err != nil {
		m.Logger.Warn("addSymbol failed", slog.String("symbol", b.Symbol), slog.Any("error", err))
	}

	session := domain.NewSession()
	cmdCtx := commands.Context{
		Port:     h.Port,
		Symbol:   b.Symbol,
		Session:  session,
		Table:    h.Symbols,
		Registry: h.Registry,
		MinDelay: m.MinDelay,
		MaxDelay: m.MaxDelay,
		Logger:   m.Logger,
	}

	tasks := make([]scheduler.Task, 0, len(b.Actions))
	for _, action := range b.Actions {
		cmd := buildCommand(cmdCtx, session.ID, action, m.Notifier)
		tasks = append(tasks, scheduler.Task{
			ID:        uuid.New(),
			Side:      domain.Side(strings.ToLower(paramValue(action, "side"))),
			SessionID: session.ID,
			Tag:       paramValue(action, "tag"),
			Command:   cmd,
		})
	}

	if err := h.Scheduler.RunSequence(ctx, tasks); err != nil {
		m.Logger.Warn("sequence failed", slog.String("exchange", b.Exchange), slog.String("symbol", b.Symbol), slog.Any("error", err))
	}

	// Hold the exchange reference until this sequence's background
	// tasks drain (spec §4.5 step 4), so closeExchange's 500ms teardown
	// timer cannot arm while a trailing stop or aggressive entry is
	// still polling this handle's port.
	h.Scheduler.Wait()
}
