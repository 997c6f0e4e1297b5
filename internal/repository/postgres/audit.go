package postgres

import (
	"context"
	"time"

	"github.com/veristore/veristore-server/internal/model"
)

var _ model.AuditStore = (*AuditRepository)(nil)

// AuditRepository persists audit events append-only.
type AuditRepository struct {
	db *Connection
}

func NewAuditRepository(db *Connection) *AuditRepository {
	return &AuditRepository{
		db: db,
	}
}

func (r *AuditRepository) Append(ctx context.Context, event model.AuditEvent) error {
	const query = `
		INSERT INTO audit_events (id, type, user_name, message, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		event.ID, string(event.Type), event.UserName, event.Message,
		string(event.Result), event.CreatedAt,
	)
	return err
}

func (r *AuditRepository) ListSince(ctx context.Context, since time.Time) ([]model.AuditEvent, error) {
	const query = `
		SELECT id, type, user_name, message, result, created_at
		FROM audit_events
		WHERE created_at >= $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.AuditEvent
	for rows.Next() {
		var event model.AuditEvent
		err := rows.Scan(
			&event.ID, &event.Type, &event.UserName, &event.Message,
			&event.Result, &event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
