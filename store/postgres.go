package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"profile-service/models"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PostgresStore keeps each profile as a JSONB document keyed by user_id.
type PostgresStore struct {
	db        *sql.DB
	tableName string
}

func NewPostgresStore(db *sql.DB, tableName string) *PostgresStore {
	return &PostgresStore{db: db, tableName: tableName}
}

func (s *PostgresStore) TableName() string {
	return s.tableName
}

func (s *PostgresStore) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (user_id TEXT PRIMARY KEY, item JSONB NOT NULL)", s.table())
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.tableName, err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, userID string) (profiles []models.Profile, err error) {
	ctx, span := s.startSpan(ctx, "postgres.Query")
	defer func() { endSpan(span, err) }()

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT item FROM %s WHERE user_id = $1", s.table()), userID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.tableName, err)
	}
	defer rows.Close()

	profiles = []models.Profile{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		record := models.Profile{}
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		profiles = append(profiles, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return profiles, nil
}

func (s *PostgresStore) Put(ctx context.Context, profile models.Profile) (err error) {
	ctx, span := s.startSpan(ctx, "postgres.Put")
	defer func() { endSpan(span, err) }()

	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (user_id, item) VALUES ($1, $2) ON CONFLICT (user_id) DO UPDATE SET item = EXCLUDED.item",
		s.table(),
	)
	if _, err := s.db.ExecContext(ctx, query, profile.UserID(), string(payload)); err != nil {
		return fmt.Errorf("put into %s: %w", s.tableName, err)
	}
	return nil
}

func (s *PostgresStore) table() string {
	return pq.QuoteIdentifier(s.tableName)
}

func (s *PostgresStore) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.sql.table", s.tableName),
		),
	)
}
