// Package storage holds the command engine's audit trail: a WAL-mode
// SQLite log of every order placed, cancelled or repriced. The store can
// also hold notification entries (RecordNotification), but the engine
// does not call it, so notifications are not logged.
// It is read-only history — the engine never replays it to
// reconstruct open algo-order state on restart.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"algotrade/internal/domain"

	_ "github.com/glebarez/go-sqlite"
)

// EntryKind distinguishes the audit events the engine records.
type EntryKind string

const (
	EntryOrderPlaced   EntryKind = "order_placed"
	EntryOrderCancelled EntryKind = "order_cancelled"
	EntryOrderRepriced EntryKind = "order_repriced"
	EntryNotification  EntryKind = "notification"
)

// Entry is one row of the audit log.
type Entry struct {
	ID        int64     `json:"id"`
	Kind      EntryKind `json:"kind"`
	TsUnixMs  int64     `json:"ts"`
	Exchange  string    `json:"exchange"`
	Symbol    string    `json:"symbol"`
	SessionID string    `json:"session_id"`
	Tag       string    `json:"tag"`
	Payload   string    `json:"payload"`
}

// AuditStore is the SQLite-backed sink for Entry rows.
type AuditStore struct {
	db *sql.DB
}

// Open creates (or reuses) a WAL-mode SQLite database at dbPath and
// ensures the audit table exists.
func Open(dbPath string) (*AuditStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			ts_unix_ms INTEGER NOT NULL,
			exchange TEXT NOT NULL,
			symbol TEXT NOT NULL,
			session_id TEXT NOT NULL,
			tag TEXT NOT NULL,
			payload TEXT NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit_log table: %w", err)
	}

	return &AuditStore{db: db}, nil
}

// RecordOrder appends an order_placed entry, marshalling order as the
// payload.
func (s *AuditStore) RecordOrder(ctx context.Context, exchange, sessionID, tag string, order domain.BrokerOrder) error {
	return s.record(ctx, EntryOrderPlaced, exchange, order.Symbol, sessionID, tag, order)
}

// RecordCancel appends an order_cancelled entry for each cancelled order.
func (s *AuditStore) RecordCancel(ctx context.Context, exchange, sessionID, tag string, orders []domain.BrokerOrder) error {
	for _, o := range orders {
		if err := s.record(ctx, EntryOrderCancelled, exchange, o.Symbol, sessionID, tag, o); err != nil {
			return err
		}
	}
	return nil
}

// RecordReprice appends an order_repriced entry for a trailing-order update.
func (s *AuditStore) RecordReprice(ctx context.Context, exchange, sessionID, tag string, order domain.BrokerOrder) error {
	return s.record(ctx, EntryOrderRepriced, exchange, order.Symbol, sessionID, tag, order)
}

// RecordNotification appends a notification entry.
func (s *AuditStore) RecordNotification(ctx context.Context, exchange, symbol, sessionID string, text string) error {
	return s.record(ctx, EntryNotification, exchange, symbol, sessionID, "", map[string]string{"text": text})
}

func (s *AuditStore) record(ctx context.Context, kind EntryKind, exchange, symbol, sessionID, tag string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal audit payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO audit_log (kind, ts_unix_ms, exchange, symbol, session_id, tag, payload) VALUES (?, ?, ?, ?, ?, ?, ?)",
		kind, time.Now().UnixMilli(), exchange, symbol, sessionID, tag, string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Recent returns up to limit of the most recently recorded entries,
// newest first.
func (s *AuditStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, kind, ts_unix_ms, exchange, symbol, session_id, tag, payload FROM audit_log ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit_log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Kind, &e.TsUnixMs, &e.Exchange, &e.Symbol, &e.SessionID, &e.Tag, &e.Payload); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database connection.
func (s *AuditStore) Close() error {
	return s.db.Close()
}
