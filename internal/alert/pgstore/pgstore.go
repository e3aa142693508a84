// Package pgstore provides a PostgreSQL implementation of alert.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/stormwatch/internal/alert"
)

var tracer = otel.Tracer("github.com/linnemanlabs/stormwatch/internal/alert/pgstore")

//go:embed schema.sql
var schema string

// Store persists alert records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store over an existing pool.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const recordColumns = `id, type, description, country, region, lat, lon, altitude, scope,
	severity, certainty, workflow, trend, exclusivity, external_lead_hours,
	run_count, missed_run_count, last_run_id, history,
	manual_hold, manual_certainty, exported_at, export_targets, created_at, updated_at`

// Create inserts a new record.
func (s *Store) Create(ctx context.Context, r *alert.Record) error {
	ctx, span := s.startSpan(ctx, "pgstore.Create", "INSERT")
	defer span.End()

	historyJSON, targetsJSON, err := marshalJSONColumns(r)
	if err != nil {
		return recordSpanErr(span, err)
	}

	query := `INSERT INTO alert_records (` + recordColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)`

	_, err = s.pool.Exec(ctx, query,
		r.ID, string(r.Type), r.Description, r.Country, r.Region, r.Lat, r.Lon, r.Altitude, string(r.Scope),
		string(r.Severity), r.Certainty, string(r.Workflow), string(r.Trend), string(r.Exclusivity), r.ExternalLeadHours,
		r.RunCount, r.MissedRunCount, r.LastRunID, historyJSON,
		r.ManualHold, r.ManualCertainty, nullableTime(r.ExportedAt), targetsJSON, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return recordSpanErr(span, fmt.Errorf("insert record: %w", err))
	}
	return nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (*alert.Record, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.Get", "SELECT")
	defer span.End()

	query := `SELECT ` + recordColumns + ` FROM alert_records WHERE id = $1`
	r, err := scanRecordRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, false, recordSpanErr(span, err)
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// List returns all records.
func (s *Store) List(ctx context.Context) ([]*alert.Record, error) {
	ctx, span := s.startSpan(ctx, "pgstore.List", "SELECT")
	defer span.End()

	rows, err := s.pool.Query(ctx, `SELECT `+recordColumns+` FROM alert_records`)
	if err != nil {
		return nil, recordSpanErr(span, fmt.Errorf("query records: %w", err))
	}
	defer rows.Close()

	var out []*alert.Record
	for rows.Next() {
		r, err := scanRecordRow(rows)
		if err != nil {
			return nil, recordSpanErr(span, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, recordSpanErr(span, fmt.Errorf("iterate records: %w", err))
	}
	return out, nil
}

// Update replaces an existing record. Updating a missing ID is an error.
func (s *Store) Update(ctx context.Context, r *alert.Record) error {
	ctx, span := s.startSpan(ctx, "pgstore.Update", "UPDATE")
	defer span.End()

	historyJSON, targetsJSON, err := marshalJSONColumns(r)
	if err != nil {
		return recordSpanErr(span, err)
	}

	query := `UPDATE alert_records SET
		type = $2, description = $3, country = $4, region = $5, lat = $6, lon = $7,
		altitude = $8, scope = $9, severity = $10, certainty = $11, workflow = $12,
		trend = $13, exclusivity = $14, external_lead_hours = $15, run_count = $16,
		missed_run_count = $17, last_run_id = $18, history = $19, manual_hold = $20,
		manual_certainty = $21, exported_at = $22, export_targets = $23, updated_at = $24
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		r.ID, string(r.Type), r.Description, r.Country, r.Region, r.Lat, r.Lon,
		r.Altitude, string(r.Scope), string(r.Severity), r.Certainty, string(r.Workflow),
		string(r.Trend), string(r.Exclusivity), r.ExternalLeadHours, r.RunCount,
		r.MissedRunCount, r.LastRunID, historyJSON, r.ManualHold,
		r.ManualCertainty, nullableTime(r.ExportedAt), targetsJSON, r.UpdatedAt,
	)
	if err != nil {
		return recordSpanErr(span, fmt.Errorf("update record: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return recordSpanErr(span, fmt.Errorf("update record: %s not found", r.ID))
	}
	return nil
}

// Delete removes a record. Deleting a missing ID is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "pgstore.Delete", "DELETE")
	defer span.End()

	if _, err := s.pool.Exec(ctx, `DELETE FROM alert_records WHERE id = $1`, id); err != nil {
		return recordSpanErr(span, fmt.Errorf("delete record: %w", err))
	}
	return nil
}

func (s *Store) startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func recordSpanErr(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func marshalJSONColumns(r *alert.Record) (history, targets []byte, err error) {
	history, err = json.Marshal(r.History)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal history: %w", err)
	}
	exportTargets := r.ExportTargets
	if exportTargets == nil {
		exportTargets = []string{}
	}
	targets, err = json.Marshal(exportTargets)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal export targets: %w", err)
	}
	return history, targets, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// scanRecordRow scans a single row into an alert.Record.
// Returns (nil, nil) when no row is found.
func scanRecordRow(row pgx.Row) (*alert.Record, error) {
	var (
		r           alert.Record
		typ         string
		scope       string
		severity    string
		workflow    string
		trend       string
		exclusivity string
		historyJSON []byte
		targetsJSON []byte
		exportedAt  *time.Time
	)

	err := row.Scan(
		&r.ID, &typ, &r.Description, &r.Country, &r.Region, &r.Lat, &r.Lon, &r.Altitude, &scope,
		&severity, &r.Certainty, &workflow, &trend, &exclusivity, &r.ExternalLeadHours,
		&r.RunCount, &r.MissedRunCount, &r.LastRunID, &historyJSON,
		&r.ManualHold, &r.ManualCertainty, &exportedAt, &targetsJSON, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	r.Type = alert.Type(typ)
	r.Scope = alert.Scope(scope)
	r.Severity = alert.Severity(severity)
	r.Workflow = alert.Workflow(workflow)
	r.Trend = alert.Trend(trend)
	r.Exclusivity = alert.Exclusivity(exclusivity)

	if exportedAt != nil {
		r.ExportedAt = *exportedAt
	}

	if err := json.Unmarshal(historyJSON, &r.History); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	var targets []string
	if err := json.Unmarshal(targetsJSON, &targets); err != nil {
		return nil, fmt.Errorf("unmarshal export targets: %w", err)
	}
	if len(targets) > 0 {
		r.ExportTargets = targets
	}

	return &r, nil
}
