package documents

import (
	"context"
	"errors"
	"fmt"

	storage "tradebook/internal/domain/entity/storage"
	"tradebook/internal/domain/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// PostgresStore keeps documents as JSONB rows. Mutate locks the row for the
// duration of the transaction, so concurrent writers are serialized.
type PostgresStore struct {
	db     db
	logger *logrus.Entry
}

// db is the part of *pgxpool.Pool the store uses.
type db interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

var _ interfaces.DocumentStore = (*PostgresStore)(nil)

func NewPostgresStore(ctx context.Context, dsn string, logger *logrus.Logger) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return newPostgresStore(pool, logger), nil
}

func newPostgresStore(conn db, logger *logrus.Logger) *PostgresStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PostgresStore{db: conn, logger: logger.WithField("component", "postgres_store")}
}

func (s *PostgresStore) Close() {
	if s == nil || s.db == nil {
		return
	}
	s.db.Close()
}

const createDocumentsTable = `
	CREATE TABLE IF NOT EXISTS documents (
		name       TEXT PRIMARY KEY,
		body       JSONB NOT NULL DEFAULT '{}'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// EnsureSchema creates the documents table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, name string) storage.Result {
	const query = `SELECT body FROM documents WHERE name = $1`
	res := s.scanDocument(s.db.QueryRow(ctx, query, name))
	if res.Degraded() {
		s.logger.WithError(res.Err).WithField("document", name).Warn("read document failed, using empty document")
	}
	return res
}

func (s *PostgresStore) Mutate(ctx context.Context, name string, fn func(doc storage.Document) error) storage.Result {
	var res storage.Result
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		const ensure = `INSERT INTO documents (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
		if _, err := tx.Exec(ctx, ensure, name); err != nil {
			return fmt.Errorf("ensure document row: %w", err)
		}
		const lock = `SELECT body FROM documents WHERE name = $1 FOR UPDATE`
		res = s.scanDocument(tx.QueryRow(ctx, lock, name))
		if res.Degraded() {
			s.logger.WithError(res.Err).WithField("document", name).Warn("read document failed, using empty document")
		}
		if err := fn(res.Doc); err != nil {
			return errAborted{err}
		}
		body, err := encode(res.Doc)
		if err != nil {
			return err
		}
		const update = `UPDATE documents SET body = $2, updated_at = now() WHERE name = $1`
		if _, err := tx.Exec(ctx, update, name, body); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return nil
	})
	if res.Doc == nil {
		res.Doc = storage.Document{}
	}

	var aborted errAborted
	switch {
	case err == nil:
		if res.Degraded() {
			return res
		}
		return storage.Result{Doc: res.Doc, Status: storage.StatusOK}
	case errors.As(err, &aborted):
		return storage.Result{Doc: res.Doc, Status: res.Status, Err: aborted.err}
	default:
		s.logger.WithError(err).WithField("document", name).Error("write document failed")
		return storage.Result{Doc: res.Doc, Status: storage.StatusWriteFailed, Err: err}
	}
}

func (s *PostgresStore) scanDocument(row pgx.Row) storage.Result {
	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.Result{Doc: storage.Document{}, Status: storage.StatusMissing}
		}
		return storage.Result{Doc: storage.Document{}, Status: storage.StatusDegraded, Err: err}
	}
	return decode(body)
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// errAborted marks an error returned by the caller's mutation, as opposed to a database failure.
type errAborted struct{ err error }

func (e errAborted) Error() string { return e.err.Error() }
func (e errAborted) Unwrap() error { return e.err }
