package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"eunomia-hq/eunomia/pkg/audit"
	"eunomia-hq/eunomia/pkg/eerrors"
)

// SQLiteConfig configures the SQLite audit sink.
type SQLiteConfig struct {
	Path        string
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns sane defaults for a single-writer sink.
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{Path: "data/audit.db", BusyTimeout: 5 * time.Second}
}

// SQLiteSink implements audit.Sink against a SQLite database.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (creating if necessary) the database at cfg.Path
// and ensures its schema is current.
func NewSQLiteSink(cfg SQLiteConfig) (*SQLiteSink, error) {
	if cfg.Path == "" {
		cfg = DefaultSQLiteConfig()
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &eerrors.AuditError{Operation: "open", Cause: err}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteSink{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return &eerrors.AuditError{Operation: "create_schema", Cause: err}
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return &eerrors.AuditError{Operation: "insert_schema_version", Cause: err}
	}
	return nil
}

func (s *SQLiteSink) Log(ctx context.Context, event audit.Event) error {
	ctxJSON, err := json.Marshal(event.Context)
	if err != nil {
		return &eerrors.AuditError{Operation: "marshal_context", Cause: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events (kind, service, version, digest, actor, timestamp, context)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(event.Kind), event.Service, event.Version, event.Digest, event.Actor, event.Timestamp, string(ctxJSON),
	)
	if err != nil {
		return &eerrors.AuditError{Operation: "log", Cause: err}
	}
	return nil
}

func (s *SQLiteSink) List(ctx context.Context, q audit.Query) ([]audit.Event, error) {
	where, args := buildWhereClause(q)
	query := "SELECT kind, service, version, digest, actor, timestamp, context FROM audit_events"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY timestamp DESC"

	limit := 100
	if q.Limit > 0 {
		limit = q.Limit
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &eerrors.AuditError{Operation: "list", Cause: err}
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var kind, version, digest, ctxJSON sql.NullString
		if err := rows.Scan(&kind, &e.Service, &version, &digest, &e.Actor, &e.Timestamp, &ctxJSON); err != nil {
			return nil, &eerrors.AuditError{Operation: "scan", Cause: err}
		}
		e.Kind = audit.EventKind(kind.String)
		e.Version = version.String
		e.Digest = digest.String
		if ctxJSON.String != "" {
			json.Unmarshal([]byte(ctxJSON.String), &e.Context)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &eerrors.AuditError{Operation: "list", Cause: err}
	}
	return events, nil
}

func (s *SQLiteSink) Count(ctx context.Context, q audit.Query) (int64, error) {
	where, args := buildWhereClause(q)
	query := "SELECT COUNT(*) FROM audit_events"
	if where != "" {
		query += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, &eerrors.AuditError{Operation: "count", Cause: err}
	}
	return count, nil
}

// SaveDeployment upserts a deployment record, keyed by rec.ID — callers
// re-save the same record as its state advances (in_progress -> completed
// or rolled_back) rather than appending a new row per transition.
func (s *SQLiteSink) SaveDeployment(ctx context.Context, rec audit.DeploymentRecord) error {
	resultsJSON, err := json.Marshal(rec.Results)
	if err != nil {
		return &eerrors.AuditError{Operation: "marshal_results", Cause: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO deployments (id, service, version, digest, strategy, state, actor, started_at, completed_at, results)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			completed_at = excluded.completed_at,
			results = excluded.results`,
		rec.ID, rec.Service, rec.Version, rec.Digest, rec.Strategy, rec.State, rec.Actor, rec.StartedAt, rec.CompletedAt, string(resultsJSON),
	)
	if err != nil {
		return &eerrors.AuditError{Operation: "save_deployment", Cause: err}
	}
	return nil
}

func (s *SQLiteSink) GetDeployment(ctx context.Context, id string) (*audit.DeploymentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, service, version, digest, strategy, state, actor, started_at, completed_at, results
		FROM deployments WHERE id = ?`, id)
	rec, err := scanDeployment(row)
	if err != nil {
		return nil, &eerrors.AuditError{Operation: "get_deployment", Cause: err}
	}
	return rec, nil
}

func (s *SQLiteSink) ListDeployments(ctx context.Context, q audit.DeploymentQuery) ([]audit.DeploymentRecord, error) {
	query := "SELECT id, service, version, digest, strategy, state, actor, started_at, completed_at, results FROM deployments"
	var args []interface{}
	if q.Service != "" {
		query += " WHERE service = ?"
		args = append(args, q.Service)
	}
	query += " ORDER BY started_at DESC"

	limit := 100
	if q.Limit > 0 {
		limit = q.Limit
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &eerrors.AuditError{Operation: "list_deployments", Cause: err}
	}
	defer rows.Close()

	var out []audit.DeploymentRecord
	for rows.Next() {
		rec, err := scanDeploymentRow(rows)
		if err != nil {
			return nil, &eerrors.AuditError{Operation: "scan_deployment", Cause: err}
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &eerrors.AuditError{Operation: "list_deployments", Cause: err}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeployment(row *sql.Row) (*audit.DeploymentRecord, error) {
	return scanDeploymentRow(row)
}

func scanDeploymentRow(row rowScanner) (*audit.DeploymentRecord, error) {
	var rec audit.DeploymentRecord
	var digest, resultsJSON sql.NullString
	var completedAt sql.NullTime
	if err := row.Scan(&rec.ID, &rec.Service, &rec.Version, &digest, &rec.Strategy, &rec.State, &rec.Actor, &rec.StartedAt, &completedAt, &resultsJSON); err != nil {
		return nil, err
	}
	rec.Digest = digest.String
	if completedAt.Valid {
		t := completedAt.Time
		rec.CompletedAt = &t
	}
	if resultsJSON.String != "" {
		json.Unmarshal([]byte(resultsJSON.String), &rec.Results)
	}
	return &rec, nil
}

// SaveCacheMetrics snapshots the local bundle cache's current counters,
// recorded periodically by the control plane's prune scheduler.
func (s *SQLiteSink) SaveCacheMetrics(ctx context.Context, cacheName string, hits, misses, evictions, entries int64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cache_metrics (recorded_at, cache_name, hits, misses, evictions, entries)
		VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now(), cacheName, hits, misses, evictions, entries,
	)
	if err != nil {
		return &eerrors.AuditError{Operation: "save_cache_metrics", Cause: err}
	}
	return nil
}

// UpdateInstanceVersion upserts the control plane's last-known version
// for an instance, called on every health check-in.
func (s *SQLiteSink) UpdateInstanceVersion(ctx context.Context, rec audit.InstanceVersionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instance_cache (service, instance_id, version, digest, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(service, instance_id) DO UPDATE SET
			version = excluded.version,
			digest = excluded.digest,
			updated_at = excluded.updated_at`,
		rec.Service, rec.InstanceID, rec.Version, rec.Digest, rec.UpdatedAt,
	)
	if err != nil {
		return &eerrors.AuditError{Operation: "update_instance_version", Cause: err}
	}
	return nil
}

func (s *SQLiteSink) ListInstanceVersions(ctx context.Context, service string) ([]audit.InstanceVersionRecord, error) {
	query := "SELECT service, instance_id, version, digest, updated_at FROM instance_cache"
	var args []interface{}
	if service != "" {
		query += " WHERE service = ?"
		args = append(args, service)
	}
	query += " ORDER BY service, instance_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &eerrors.AuditError{Operation: "list_instance_versions", Cause: err}
	}
	defer rows.Close()

	var out []audit.InstanceVersionRecord
	for rows.Next() {
		var rec audit.InstanceVersionRecord
		var digest sql.NullString
		if err := rows.Scan(&rec.Service, &rec.InstanceID, &rec.Version, &digest, &rec.UpdatedAt); err != nil {
			return nil, &eerrors.AuditError{Operation: "scan_instance_version", Cause: err}
		}
		rec.Digest = digest.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &eerrors.AuditError{Operation: "list_instance_versions", Cause: err}
	}
	return out, nil
}

func (s *SQLiteSink) Close() error {
	if err := s.db.Close(); err != nil {
		return &eerrors.AuditError{Operation: "close", Cause: err}
	}
	return nil
}

func buildWhereClause(q audit.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if q.Service != "" {
		conditions = append(conditions, "service = ?")
		args = append(args, q.Service)
	}
	if q.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(q.Kind))
	}
	if q.Since != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, *q.Since)
	}
	if q.Until != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, *q.Until)
	}

	where := ""
	for i, c := range conditions {
		if i > 0 {
			where += " AND "
		}
		where += c
	}
	return where, args
}
