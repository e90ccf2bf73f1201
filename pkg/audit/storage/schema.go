package storage

// SchemaVersion is the current audit database schema version.
const SchemaVersion = 2

// Schema creates the audit log table and its query indexes.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
    rowid       INTEGER PRIMARY KEY AUTOINCREMENT,
    kind        TEXT NOT NULL,
    service     TEXT NOT NULL,
    version     TEXT,
    digest      TEXT,
    actor       TEXT NOT NULL,
    timestamp   TIMESTAMP NOT NULL,
    context     TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version     INTEGER PRIMARY KEY,
    applied_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS deployments (
    id            TEXT PRIMARY KEY,
    service       TEXT NOT NULL,
    version       TEXT NOT NULL,
    digest        TEXT,
    strategy      TEXT NOT NULL,
    state         TEXT NOT NULL,
    actor         TEXT NOT NULL,
    started_at    TIMESTAMP NOT NULL,
    completed_at  TIMESTAMP,
    results       TEXT
);

-- instance_cache tracks, per service+instance, the last version the
-- control plane confirmed an instance holds; it is a point-in-time
-- projection, overwritten rather than appended to, unlike audit_events.
CREATE TABLE IF NOT EXISTS instance_cache (
    service      TEXT NOT NULL,
    instance_id  TEXT NOT NULL,
    version      TEXT NOT NULL,
    digest       TEXT,
    updated_at   TIMESTAMP NOT NULL,
    PRIMARY KEY (service, instance_id)
);

-- cache_metrics holds periodic snapshots of the local bundle cache's
-- hit/miss/eviction counters, so operators can inspect cache behavior
-- from prior runs without a live Prometheus scrape window; the
-- Prometheus counters in pkg/telemetry/metrics remain the source of
-- truth for real-time alerting.
CREATE TABLE IF NOT EXISTS cache_metrics (
    recorded_at  TIMESTAMP NOT NULL,
    cache_name   TEXT NOT NULL,
    hits         INTEGER NOT NULL,
    misses       INTEGER NOT NULL,
    evictions    INTEGER NOT NULL,
    entries      INTEGER NOT NULL,
    PRIMARY KEY (recorded_at, cache_name)
);

CREATE INDEX IF NOT EXISTS idx_audit_events_service ON audit_events(service);
CREATE INDEX IF NOT EXISTS idx_audit_events_kind ON audit_events(kind);
CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp);
CREATE INDEX IF NOT EXISTS idx_deployments_service ON deployments(service);
CREATE INDEX IF NOT EXISTS idx_deployments_started_at ON deployments(started_at);
`

// InsertSchemaVersion records SchemaVersion, a no-op if already present.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion returns the highest applied schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
