package backend

import (
	"context"
	"testing"

	"tracker/internal/config"
	"tracker/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDSN: ":memory:", IDStrategy: "sequence"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDSN != ":memory:" || cfg.IDStrategy != "sequence" {
		t.Errorf("unexpected backend config: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDSN: ":memory:"}, false},
		{"sqlite without dsn", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	for _, typ := range GetBackendTypes() {
		t.Run(typ.String(), func(t *testing.T) {
			ctx := context.Background()
			res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: typ, SQLiteDSN: ":memory:", IDStrategy: "sequence"})
			if err != nil {
				t.Fatalf("create backend: %v", err)
			}
			t.Cleanup(func() { _ = res.Cleanup() })

			if res.EventsEnabled {
				t.Error("events should be disabled without AMQP URL")
			}

			d, _ := core.ParseDate("2024-01-10")
			tx, err := res.Service.Add(ctx, core.Transaction{
				Amount: core.Money{Cents: 50000}, Date: d, Description: "Groceries", Category: core.Food,
			})
			if err != nil {
				t.Fatalf("add: %v", err)
			}
			if tx.ID != "tx-1" {
				t.Errorf("expected sequence id tx-1, got %s", tx.ID)
			}
			state, err := res.Service.Snapshot(ctx)
			if err != nil || len(state.Transactions) != 1 {
				t.Fatalf("snapshot: %+v err=%v", state, err)
			}
		})
	}
}
