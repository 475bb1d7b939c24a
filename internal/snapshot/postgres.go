package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/tablefare/enrich-cli/internal/model"
)

// pgPool is the minimal pool surface the store needs; pgxpool.Pool and
// pgxmock both satisfy it.
type pgPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool pgPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool creates a PostgresStore over an existing pool.
func NewPostgresFromPool(pool pgPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id           TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL UNIQUE,
	rows         JSONB NOT NULL,
	locked       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS base_datasets (
	snapshot_id TEXT PRIMARY KEY REFERENCES snapshots(id),
	records     JSONB NOT NULL
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Create relies on the content_hash unique constraint: concurrent creates
// with identical content race on one insert and the losers resolve to the
// winner's id with StatusReused.
func (s *PostgresStore) Create(ctx context.Context, dataset []model.SourceRecord) (*model.Snapshot, CreateStatus, error) {
	rows := FilterRows(dataset)
	hash, err := ContentHash(rows)
	if err != nil {
		return nil, "", err
	}

	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, "", eris.Wrap(err, "postgres: marshal rows")
	}
	datasetJSON, err := json.Marshal(dataset)
	if err != nil {
		return nil, "", eris.Wrap(err, "postgres: marshal dataset")
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, content_hash, rows, locked, created_at)
		 VALUES ($1, $2, $3, TRUE, $4)
		 ON CONFLICT (content_hash) DO NOTHING`,
		id, hash, rowsJSON, now,
	)
	if err != nil {
		return nil, "", eris.Wrap(err, "postgres: insert snapshot")
	}

	status := StatusCreated
	if tag.RowsAffected() == 0 {
		status = StatusReused
		row := s.pool.QueryRow(ctx,
			`SELECT id, created_at FROM snapshots WHERE content_hash = $1`, hash)
		if err := row.Scan(&id, &now); err != nil {
			return nil, "", eris.Wrap(err, "postgres: resolve existing snapshot")
		}
	} else {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO base_datasets (snapshot_id, records) VALUES ($1, $2)`,
			id, datasetJSON,
		); err != nil {
			return nil, "", eris.Wrap(err, "postgres: insert base dataset")
		}
	}

	return &model.Snapshot{
		ID:          id,
		Rows:        rows,
		ContentHash: hash,
		Locked:      true,
		CreatedAt:   now,
	}, status, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*model.Snapshot, error) {
	var (
		rowsJSON []byte
		hash     string
		created  time.Time
	)
	row := s.pool.QueryRow(ctx,
		`SELECT content_hash, rows, created_at FROM snapshots WHERE id = $1`, id)
	if err := row.Scan(&hash, &rowsJSON, &created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get snapshot %s", id)
	}

	var rows []model.SnapshotRow
	if err := json.Unmarshal(rowsJSON, &rows); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal rows for %s", id)
	}

	return &model.Snapshot{
		ID:          id,
		Rows:        rows,
		ContentHash: hash,
		Locked:      true,
		CreatedAt:   created,
	}, nil
}

func (s *PostgresStore) BaseDataset(ctx context.Context, id string) ([]model.SourceRecord, error) {
	var recordsJSON []byte
	row := s.pool.QueryRow(ctx,
		`SELECT records FROM base_datasets WHERE snapshot_id = $1`, id)
	if err := row.Scan(&recordsJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get base dataset %s", id)
	}

	var records []model.SourceRecord
	if err := json.Unmarshal(recordsJSON, &records); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal base dataset %s", id)
	}
	return records, nil
}
