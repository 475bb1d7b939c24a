package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tablefare/enrich-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given DSN and configures WAL.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id           TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL UNIQUE,
	rows         TEXT NOT NULL,
	locked       INTEGER NOT NULL DEFAULT 1,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS base_datasets (
	snapshot_id TEXT PRIMARY KEY REFERENCES snapshots(id),
	records     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_content_hash ON snapshots(content_hash);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create performs the create-or-reuse check-and-insert atomically: the
// unique index on content_hash arbitrates concurrent creations with
// identical content, so exactly one caller observes StatusCreated.
func (s *SQLiteStore) Create(ctx context.Context, dataset []model.SourceRecord) (*model.Snapshot, CreateStatus, error) {
	rows := FilterRows(dataset)
	hash, err := ContentHash(rows)
	if err != nil {
		return nil, "", err
	}

	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return nil, "", eris.Wrap(err, "sqlite: marshal rows")
	}
	datasetJSON, err := json.Marshal(dataset)
	if err != nil {
		return nil, "", eris.Wrap(err, "sqlite: marshal dataset")
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, "", eris.Wrap(err, "sqlite: begin create")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, content_hash, rows, locked, created_at)
		 VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT(content_hash) DO NOTHING`,
		id, hash, string(rowsJSON), now,
	)
	if err != nil {
		return nil, "", eris.Wrap(err, "sqlite: insert snapshot")
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, "", eris.Wrap(err, "sqlite: rows affected")
	}

	status := StatusCreated
	if inserted == 0 {
		// Lost the race or repeated content: resolve to the existing id.
		status = StatusReused
		row := tx.QueryRowContext(ctx,
			`SELECT id, created_at FROM snapshots WHERE content_hash = ?`, hash)
		if err := row.Scan(&id, &now); err != nil {
			return nil, "", eris.Wrap(err, "sqlite: resolve existing snapshot")
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO base_datasets (snapshot_id, records) VALUES (?, ?)`,
			id, string(datasetJSON),
		); err != nil {
			return nil, "", eris.Wrap(err, "sqlite: insert base dataset")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, "", eris.Wrap(err, "sqlite: commit create")
	}

	return &model.Snapshot{
		ID:          id,
		Rows:        rows,
		ContentHash: hash,
		Locked:      true,
		CreatedAt:   now,
	}, status, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Snapshot, error) {
	var (
		rowsJSON string
		hash     string
		created  time.Time
	)
	row := s.db.QueryRowContext(ctx,
		`SELECT content_hash, rows, created_at FROM snapshots WHERE id = ?`, id)
	if err := row.Scan(&hash, &rowsJSON, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get snapshot %s", id)
	}

	var rows []model.SnapshotRow
	if err := json.Unmarshal([]byte(rowsJSON), &rows); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal rows for %s", id)
	}

	return &model.Snapshot{
		ID:          id,
		Rows:        rows,
		ContentHash: hash,
		Locked:      true,
		CreatedAt:   created,
	}, nil
}

func (s *SQLiteStore) BaseDataset(ctx context.Context, id string) ([]model.SourceRecord, error) {
	var recordsJSON string
	row := s.db.QueryRowContext(ctx,
		`SELECT records FROM base_datasets WHERE snapshot_id = ?`, id)
	if err := row.Scan(&recordsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "sqlite: get base dataset %s", id)
	}

	var records []model.SourceRecord
	if err := json.Unmarshal([]byte(recordsJSON), &records); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal base dataset %s", id)
	}
	return records, nil
}
