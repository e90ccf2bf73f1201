package main

import (
	"fmt"

	"eunomia-hq/eunomia/pkg/audit"
	"eunomia-hq/eunomia/pkg/audit/storage"
	"eunomia-hq/eunomia/pkg/config"
)

// openAuditSink builds the configured audit.Sink. Closing it is the
// caller's responsibility.
func openAuditSink(cfg config.AuditConfig) (audit.Sink, error) {
	switch cfg.Backend {
	case "", "sqlite":
		return storage.NewSQLiteSink(storage.SQLiteConfig{Path: cfg.SQLitePath})
	case "memory":
		return storage.NewMemorySink(), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend %q", cfg.Backend)
	}
}
