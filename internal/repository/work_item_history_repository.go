package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/onboarding-service/internal/domain"
)

// WorkItemHistoryRepository stores the append-only audit trail.
type WorkItemHistoryRepository interface {
	Append(ctx context.Context, workItemID string, entries []domain.HistoryEntry) error
	ListByWorkItem(ctx context.Context, workItemID string) ([]domain.HistoryEntry, error)
}

type workItemHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewWorkItemHistoryRepository builds repository.
func NewWorkItemHistoryRepository(pool *pgxpool.Pool) WorkItemHistoryRepository {
	return &workItemHistoryRepository{pool: pool}
}

func (r *workItemHistoryRepository) Append(ctx context.Context, workItemID string, entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	const query = `
        INSERT INTO work_item_history (work_item_id, actor_id, actor_name, action, notes, occurred_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	for _, entry := range entries {
		if _, err := r.pool.Exec(ctx, query,
			workItemID,
			entry.ActorID,
			entry.ActorName,
			entry.Action,
			entry.Notes,
			entry.At,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *workItemHistoryRepository) ListByWorkItem(ctx context.Context, workItemID string) ([]domain.HistoryEntry, error) {
	const query = `
        SELECT actor_id, actor_name, action, notes, occurred_at
        FROM work_item_history WHERE work_item_id=$1 ORDER BY occurred_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, workItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		if err := rows.Scan(
			&entry.ActorID,
			&entry.ActorName,
			&entry.Action,
			&entry.Notes,
			&entry.At,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
