package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createDocumentsTable = `
CREATE TABLE IF NOT EXISTS documents (
	seq        BIGSERIAL PRIMARY KEY,
	collection TEXT  NOT NULL,
	id         TEXT  NOT NULL,
	fields     JSONB NOT NULL,
	UNIQUE (collection, id)
)`

const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps every collection in a single documents table.
// Fields live in a JSONB column and seq gives insertion order.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
	postgresOps
}

func NewPostgresStore(pool *pgxpool.Pool, log *slog.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, log: log, postgresOps: postgresOps{q: pool}}
}

// ConnectPostgres creates a pgx pool, verifies it with a ping and makes sure the schema exists.
// Each Unique becomes a partial unique index on the JSONB field.
func ConnectPostgres(ctx context.Context, dsn string, log *slog.Logger, uniques ...Unique) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(normalizeDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 4
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err = pool.Exec(ctx, createDocumentsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	for _, u := range uniques {
		if _, err = pool.Exec(ctx, uniqueIndex(u)); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres: unique index on %s.%s: %w", u.Collection, u.Field, err)
		}
	}
	log.Info("Connected to Postgres", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return NewPostgresStore(pool, log), nil
}

// Transact runs fn in a serializable transaction. fn is replayed when
// Postgres aborts it with a serialization failure.
func (s *PostgresStore) Transact(ctx context.Context, fn func(ops Operations) error) error {
	var err error
	for attempt := 0; attempt <= conflictRetries; attempt++ {
		err = s.transact(ctx, fn)
		if !hasCode(err, serializationFailure) {
			return err
		}
		s.log.Debug("Serialization failure, replaying", "attempt", attempt+1)
	}
	return err
}

func (s *PostgresStore) transact(ctx context.Context, fn func(ops Operations) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.log.Warn("Rollback failed", "error", rbErr)
		}
	}()

	if err = fn(postgresOps{q: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type postgresOps struct {
	q querier
}

func (o postgresOps) Insert(ctx context.Context, collection string, fields Fields) (Document, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return Document{}, fmt.Errorf("encode document: %w", err)
	}
	doc := Document{ID: uuid.NewString(), Fields: fields}
	var seq int64
	err = o.q.QueryRow(ctx,
		`INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3::jsonb) RETURNING seq`,
		collection, doc.ID, string(data)).Scan(&seq)
	if err != nil {
		return Document{}, duplicateError(err)
	}
	doc.Seq = uint64(seq)
	return doc, nil
}

func (o postgresOps) FindOne(ctx context.Context, collection string, filter Filter) (Document, error) {
	docs, err := o.FindMany(ctx, collection, filter, FindOptions{Limit: 1})
	if err != nil {
		return Document{}, err
	}
	if len(docs) == 0 {
		return Document{}, ErrNoDocument
	}
	return docs[0], nil
}

func (o postgresOps) FindMany(ctx context.Context, collection string, filter Filter, opts FindOptions) ([]Document, error) {
	where, args := whereClause(collection, filter)
	query := `SELECT seq, id, fields FROM documents WHERE ` + where + ` ORDER BY seq`
	if opts.NewestFirst {
		query += ` DESC`
	}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := o.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			seq  int64
			doc  Document
			data []byte
		)
		if err = rows.Scan(&seq, &doc.ID, &data); err != nil {
			return nil, err
		}
		if err = json.Unmarshal(data, &doc.Fields); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
		}
		doc.Seq = uint64(seq)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (o postgresOps) UpdateOne(ctx context.Context, collection string, filter Filter, patch Fields) error {
	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	where, args := whereClause(collection, filter)
	args = append(args, string(data))
	tag, err := o.q.Exec(ctx, fmt.Sprintf(
		`UPDATE documents SET fields = fields || $%d::jsonb
		 WHERE seq = (SELECT seq FROM documents WHERE %s ORDER BY seq LIMIT 1)`,
		len(args), where), args...)
	if err != nil {
		return duplicateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoDocument
	}
	return nil
}

func (o postgresOps) DeleteOne(ctx context.Context, collection string, filter Filter) error {
	where, args := whereClause(collection, filter)
	tag, err := o.q.Exec(ctx,
		`DELETE FROM documents WHERE seq = (SELECT seq FROM documents WHERE `+where+` ORDER BY seq LIMIT 1)`,
		args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoDocument
	}
	return nil
}

// whereClause translates a Filter into SQL. Field names travel as parameters too.
func whereClause(collection string, filter Filter) (string, []any) {
	args := []any{collection}
	condition := func(m Match) string {
		column := "id"
		if m.Field != IDField {
			args = append(args, m.Field)
			column = fmt.Sprintf("fields->>$%d::text", len(args))
		}
		args = append(args, m.Value)
		return fmt.Sprintf("%s = $%d::text", column, len(args))
	}

	conditions := []string{"collection = $1"}
	for _, m := range filter.All {
		conditions = append(conditions, condition(m))
	}
	if len(filter.Any) > 0 {
		alternatives := make([]string, 0, len(filter.Any))
		for _, m := range filter.Any {
			alternatives = append(alternatives, condition(m))
		}
		conditions = append(conditions, "("+strings.Join(alternatives, " OR ")+")")
	}
	return strings.Join(conditions, " AND "), args
}

func uniqueIndex(u Unique) string {
	name := pgx.Identifier{fmt.Sprintf("documents_%s_%s_key", u.Collection, u.Field)}.Sanitize()
	return fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON documents ((fields->>%s)) WHERE collection = %s`,
		name, quoteLiteral(u.Field), quoteLiteral(u.Collection))
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func duplicateError(err error) error {
	if hasCode(err, uniqueViolation) {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}

// normalizeDSN converts SQLAlchemy-style driver suffixes to a pgx-compatible DSN.
func normalizeDSN(dsn string) string {
	s := strings.TrimSpace(dsn)
	s = strings.Replace(s, "postgresql+asyncpg://", "postgresql://", 1)
	s = strings.Replace(s, "postgres+asyncpg://", "postgres://", 1)
	s = strings.Replace(s, "postgresql+pgx://", "postgresql://", 1)
	return strings.Replace(s, "postgres+pgx://", "postgres://", 1)
}
