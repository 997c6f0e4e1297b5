package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/veristore/veristore-server/internal/model"
)

var _ model.RecordStore = (*RecordRepository)(nil)

// RecordRepository persists verification records keyed by derived key.
type RecordRepository struct {
	db *Connection
}

func NewRecordRepository(db *Connection) *RecordRepository {
	return &RecordRepository{
		db: db,
	}
}

func (r *RecordRepository) Get(ctx context.Context, key string) (model.VerificationRecord, error) {
	const query = `
		SELECT user_name, mutable_data_hash, immutable_data_hash, updated_at, change_count
		FROM verification_records
		WHERE derived_key = $1`

	var record model.VerificationRecord
	err := r.db.QueryRow(ctx, query, key).Scan(
		&record.UserName, &record.MutableDataHash, &record.ImmutableDataHash,
		&record.UpdatedAt, &record.ChangeCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.VerificationRecord{}, model.ErrNotFound
		}
		return model.VerificationRecord{}, err
	}

	return record, nil
}

// Put writes the record at key, replacing any existing entry. Duplicate
// and rate-limit policy live in the service; the store is a plain map.
func (r *RecordRepository) Put(ctx context.Context, key string, record model.VerificationRecord) error {
	const query = `
		INSERT INTO verification_records (derived_key, user_name, mutable_data_hash, immutable_data_hash, updated_at, change_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (derived_key) DO UPDATE SET
			user_name = EXCLUDED.user_name,
			mutable_data_hash = EXCLUDED.mutable_data_hash,
			immutable_data_hash = EXCLUDED.immutable_data_hash,
			updated_at = EXCLUDED.updated_at,
			change_count = EXCLUDED.change_count`

	_, err := r.db.Exec(ctx, query,
		key, record.UserName, record.MutableDataHash, record.ImmutableDataHash,
		record.UpdatedAt, record.ChangeCount,
	)
	return err
}

// Delete removes the entry at key. Deleting an absent key is a no-op.
func (r *RecordRepository) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM verification_records WHERE derived_key = $1`
	_, err := r.db.Exec(ctx, query, key)
	return err
}
