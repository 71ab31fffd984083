package store

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/darkden-lab/logplay/internal/catalog"
	"github.com/darkden-lab/logplay/internal/diag"
)

var log = diag.New("store")

// PostgresStore is the SQL-backed Store of §6.1, grounded on the teacher's
// internal/db.DB (pgxpool, golang-migrate) and internal/notifications.Store
// (parameterized pgx queries). Postgres connections are safe for concurrent
// readers, so ThreadsafeCapability always reports true.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and runs the schema migrations found under
// migrationsPath (skipped when migrationsPath is empty). If the connection
// cannot be established or the migrations fail, it returns a non-nil Store
// with Valid()==false together with a wrapped error, so callers may either
// check the error or hand the Store on and rely on Valid().
func Open(ctx context.Context, databaseURL, migrationsPath string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Errorf("failed to create pool: %v", err)
		return &PostgresStore{}, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Errorf("failed to ping database: %v", err)
		return &PostgresStore{}, fmt.Errorf("ping database: %w", err)
	}

	if migrationsPath != "" {
		if err := runMigrations(databaseURL, migrationsPath); err != nil {
			log.Errorf("migrations failed: %v", err)
			return &PostgresStore{}, fmt.Errorf("run migrations: %w", err)
		}
	}

	return &PostgresStore{pool: pool}, nil
}

func runMigrations(databaseURL, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Valid() bool {
	return s.pool != nil
}

func (s *PostgresStore) ThreadsafeCapability() bool {
	return true
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Descriptor loads the topic -> type-set catalog from the topics table.
func (s *PostgresStore) Descriptor(ctx context.Context) (catalog.Catalog, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("store is not valid")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT topics.name, message_types.name
		   FROM topics
		   JOIN message_types ON topics.message_type_id = message_types.id`)
	if err != nil {
		return nil, fmt.Errorf("query descriptor: %w", err)
	}
	defer rows.Close()

	cat := make(catalog.Catalog)
	for rows.Next() {
		var topic, typ string
		if err := rows.Scan(&topic, &typ); err != nil {
			return nil, fmt.Errorf("scan descriptor row: %w", err)
		}
		if cat[topic] == nil {
			cat[topic] = make(map[string]struct{})
		}
		cat[topic][typ] = struct{}{}
	}
	return cat, rows.Err()
}

// QueryMessages returns a Batch over every message recorded for the given
// topics, ordered non-decreasing by time_received.
func (s *PostgresStore) QueryMessages(ctx context.Context, topics []string) (Batch, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("store is not valid")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT topics.name, message_types.name, messages.data, messages.time_received
		   FROM messages
		   JOIN topics ON messages.topic_id = topics.id
		   JOIN message_types ON topics.message_type_id = message_types.id
		  WHERE topics.name = ANY($1)
		  ORDER BY messages.time_received ASC`,
		topics)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return &pgxBatch{rows: rows}, nil
}

// pgxBatch adapts pgx.Rows to the Batch interface. It holds no lock of its
// own; the caller (the Scheduler's worker) is responsible for not touching
// it from more than one goroutine at a time, per §5's batch-lock rule.
type pgxBatch struct {
	rows pgx.Rows
	cur  catalog.Message
	err  error
}

func (b *pgxBatch) Next() bool {
	if !b.rows.Next() {
		return false
	}
	var topic, typ string
	var data []byte
	var timeReceived int64
	if err := b.rows.Scan(&topic, &typ, &data, &timeReceived); err != nil {
		b.err = err
		return false
	}
	b.cur = catalog.Message{Topic: topic, Type: typ, Data: data, TimeReceived: timeReceived}
	return true
}

func (b *pgxBatch) Message() catalog.Message { return b.cur }

func (b *pgxBatch) Err() error {
	if b.err != nil {
		return b.err
	}
	return b.rows.Err()
}

func (b *pgxBatch) Close() error {
	b.rows.Close()
	return nil
}
