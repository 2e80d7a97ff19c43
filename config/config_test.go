package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Fulfillment.MaxAttempts != 3 || cfg.Fulfillment.RetryDelay != 5*time.Second {
		t.Errorf("fulfillment defaults = %+v", cfg.Fulfillment)
	}
	if cfg.Fulfillment.BulkBatchSize != 10 || cfg.Fulfillment.BulkBatchPause != time.Second {
		t.Errorf("bulk defaults = %+v", cfg.Fulfillment)
	}
	if cfg.Messaging.EventsTopic != "lastmile.events" {
		t.Errorf("events topic = %q", cfg.Messaging.EventsTopic)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lastmile.yaml")
	data := `
database:
  driver: postgres
  postgres:
    host: db.internal
messaging:
  kafka:
    brokers: ["kafka-1:9092", "kafka-2:9092"]
  ring_capacity: 50
fulfillment:
  max_attempts: 5
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.Postgres.Host != "db.internal" {
		t.Errorf("database = %+v", cfg.Database)
	}
	// Untouched postgres fields keep their defaults.
	if cfg.Database.Postgres.Port != 5432 {
		t.Errorf("port = %d, want default 5432", cfg.Database.Postgres.Port)
	}
	if len(cfg.Messaging.Kafka.Brokers) != 2 {
		t.Errorf("brokers = %v", cfg.Messaging.Kafka.Brokers)
	}
	if cfg.Messaging.RingCapacity != 50 {
		t.Errorf("ring capacity = %d", cfg.Messaging.RingCapacity)
	}
	if cfg.Fulfillment.MaxAttempts != 5 {
		t.Errorf("max attempts = %d", cfg.Fulfillment.MaxAttempts)
	}
	if cfg.Fulfillment.RetryDelay != 5*time.Second {
		t.Errorf("retry delay = %v, want default kept", cfg.Fulfillment.RetryDelay)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("database: [not a map"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed yaml")
	}
}
