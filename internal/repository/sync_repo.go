package repository

import (
	"fmt"
	"time"

	"github.com/lodgeledger/trustbooks/internal/domain"
)

// SyncRepo records merged provider batches by content digest so an exact
// replay of a batch can be short-circuited.
type SyncRepo struct {
	db DBTX
}

func NewSyncRepo(db DBTX) *SyncRepo {
	return &SyncRepo{db: db}
}

func (r *SyncRepo) BatchExists(digest string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sync_batches WHERE digest = ?", digest).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check batch digest: %w", err)
	}
	return count > 0, nil
}

func (r *SyncRepo) RecordBatch(id, digest string, result domain.MergeResult, mergedAt time.Time) error {
	_, err := r.db.Exec(
		`INSERT INTO sync_batches
		(id, digest, properties_created, properties_updated,
		 reservations_created, reservations_updated, merged_at)
		VALUES (?,?,?,?,?,?,?)`,
		id, digest, result.PropertiesCreated, result.PropertiesUpdated,
		result.ReservationsCreated, result.ReservationsUpdated, formatTime(mergedAt),
	)
	if err != nil {
		return fmt.Errorf("record batch: %w", err)
	}
	return nil
}
