package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgrelay/internal/domain/model"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Save(ctx context.Context, entry model.Audit) error {
	if r == nil || r.pool == nil {
		return nil
	}

	payload := entry.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	const query = `
INSERT INTO relay_audit (
	submission_id,
	actor_tg_id,
	action,
	payload,
	created_at
) VALUES (
	$1,
	$2,
	$3,
	$4::jsonb,
	$5
)
`
	if _, err := r.pool.Exec(ctx, query, entry.SubmissionID, entry.ActorTGID, string(entry.Action), string(payload), entry.CreatedAt); err != nil {
		return fmt.Errorf("insert relay audit: %w", err)
	}
	return nil
}

func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]model.Audit, error) {
	if r == nil || r.pool == nil {
		return []model.Audit{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, submission_id, actor_tg_id, action, payload, created_at
		FROM relay_audit
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent relay audit: %w", err)
	}
	defer rows.Close()

	result := make([]model.Audit, 0, limit)
	for rows.Next() {
		var entry model.Audit
		var action string
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.SubmissionID, &entry.ActorTGID, &action, &payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan relay audit row: %w", err)
		}
		entry.Action = model.AuditAction(action)
		entry.Payload = json.RawMessage(payload)
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relay audit rows: %w", err)
	}

	return result, nil
}
