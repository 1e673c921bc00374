package storage

import (
	"context"
	"os"
	"testing"

	"algotrade/internal/domain"

	"github.com/shopspring/decimal"
)

func TestAuditStore_RecordAndRecent(t *testing.T) {
	dbPath := "test_audit.db"
	defer os.Remove(dbPath)
	defer os.Remove(dbPath + "-wal")
	defer os.Remove(dbPath + "-shm")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	order := domain.BrokerOrder{
		ID: "o1", Symbol: "BTC-PERPETUAL", Side: domain.Buy,
		Price: decimal.NewFromInt(1000), Amount: decimal.NewFromInt(1),
	}

	if err := store.RecordOrder(ctx, "deribit", "sess-1", "", order); err != nil {
		t.Fatalf("RecordOrder: %v", err)
	}
	if err := store.RecordCancel(ctx, "deribit", "sess-1", "", []domain.BrokerOrder{order}); err != nil {
		t.Fatalf("RecordCancel: %v", err)
	}
	if err := store.RecordNotification(ctx, "deribit", "BTC-PERPETUAL", "sess-1", "done"); err != nil {
		t.Fatalf("RecordNotification: %v", err)
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Kind != EntryNotification {
		t.Fatalf("expected the most recent entry to be a notification, got %v", entries[0].Kind)
	}
}

func TestAuditStore_RecentRespectsLimit(t *testing.T) {
	dbPath := "test_audit_limit.db"
	defer os.Remove(dbPath)
	defer os.Remove(dbPath + "-wal")
	defer os.Remove(dbPath + "-shm")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := store.RecordNotification(ctx, "deribit", "BTC-PERPETUAL", "sess-1", "tick"); err != nil {
			t.Fatalf("RecordNotification: %v", err)
		}
	}

	entries, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}
