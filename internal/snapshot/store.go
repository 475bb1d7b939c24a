// Package snapshot implements the content-addressed, append-only store of
// immutable fallback snapshots.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/tablefare/enrich-cli/internal/model"
)

// CreateStatus reports whether a Create call stored a new snapshot or
// resolved to an existing one with identical content.
type CreateStatus string

const (
	StatusCreated CreateStatus = "created"
	StatusReused  CreateStatus = "reused"
)

// ErrNotFound is returned when no snapshot exists under the given id.
var ErrNotFound = eris.New("snapshot: not found")

// Store persists snapshots and the base datasets they were derived from.
// Snapshots are append-only: there is no update or delete, so a
// long-running matching job can safely re-read a stable reference set.
type Store interface {
	// Create filters dataset to rows missing at least one critical field,
	// then stores the result content-addressed: an identical row set
	// (independent of order) resolves to the existing snapshot id with
	// StatusReused. The full base dataset is kept alongside for the merge.
	Create(ctx context.Context, dataset []model.SourceRecord) (*model.Snapshot, CreateStatus, error)

	// Get returns a stored snapshot by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Snapshot, error)

	// BaseDataset returns the dataset a snapshot was created from, in its
	// original order, or ErrNotFound.
	BaseDataset(ctx context.Context, id string) ([]model.SourceRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// FilterRows reduces a dataset to snapshot rows: only records missing at
// least one critical field are kept, and the current critical values are
// captured as Existing* baggage for the later merge.
func FilterRows(dataset []model.SourceRecord) []model.SnapshotRow {
	rows := make([]model.SnapshotRow, 0, len(dataset))
	for _, r := range dataset {
		if !r.MissingCritical() {
			continue
		}
		rows = append(rows, model.SnapshotRow{
			PlaceID:              r.PlaceID,
			Name:                 r.Name,
			City:                 r.City,
			Area:                 r.Area,
			Latitude:             r.Latitude,
			Longitude:            r.Longitude,
			Website:              r.Website,
			ExistingOpeningHours: r.OpeningHours,
			ExistingCuisineType:  r.CuisineType,
			ExistingPriceRange:   r.PriceRange,
			ExistingPhone:        r.Phone,
		})
	}
	return rows
}

// ContentHash returns the SHA-256 hex digest of a row set under a stable,
// order-insensitive serialization: each row is marshaled with a fixed key
// order, the serialized rows are sorted, and the digest covers the joined
// form. Reordering the input never changes the hash.
func ContentHash(rows []model.SnapshotRow) (string, error) {
	serialized := make([]string, 0, len(rows))
	for _, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			return "", eris.Wrap(err, "snapshot: serialize row")
		}
		serialized = append(serialized, string(raw))
	}
	sort.Strings(serialized)
	sum := sha256.Sum256([]byte(strings.Join(serialized, "\n")))
	return hex.EncodeToString(sum[:]), nil
}
