package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/onboarding-service/internal/domain"
)

// ChecklistRepository persists checklists together with their items.
type ChecklistRepository interface {
	Create(ctx context.Context, checklist *domain.Checklist) error
	Update(ctx context.Context, checklist *domain.Checklist) error
	GetByID(ctx context.Context, id string) (*domain.Checklist, error)
	GetByOwnerRef(ctx context.Context, ownerRef string) (*domain.Checklist, error)
}

type checklistRepository struct {
	pool *pgxpool.Pool
}

// NewChecklistRepository instantiates repository.
func NewChecklistRepository(pool *pgxpool.Pool) ChecklistRepository {
	return &checklistRepository{pool: pool}
}

func (r *checklistRepository) Create(ctx context.Context, checklist *domain.Checklist) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertChecklist = `
        INSERT INTO checklists (id, owner_ref, type, status, completed_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := tx.Exec(ctx, insertChecklist,
		checklist.ID,
		checklist.OwnerRef,
		checklist.Type,
		checklist.Status,
		checklist.CompletedAt,
		checklist.CreatedAt,
		checklist.UpdatedAt,
	); err != nil {
		return err
	}

	for _, item := range checklist.Items() {
		if err := upsertItem(ctx, tx, checklist.ID, item); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *checklistRepository) Update(ctx context.Context, checklist *domain.Checklist) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const updateChecklist = `
        UPDATE checklists SET status=$2, completed_at=$3, updated_at=$4 WHERE id=$1`
	cmd, err := tx.Exec(ctx, updateChecklist,
		checklist.ID,
		checklist.Status,
		checklist.CompletedAt,
		checklist.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	for _, item := range checklist.Items() {
		if err := upsertItem(ctx, tx, checklist.ID, item); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func upsertItem(ctx context.Context, tx pgx.Tx, checklistID string, item domain.ChecklistItem) error {
	const query = `
        INSERT INTO checklist_items (id, checklist_id, code, name, description, category,
            required, sort_order, status, completed_by_id, completed_by_name, completed_at, notes, skip_reason)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        ON CONFLICT (id) DO UPDATE SET
            status=EXCLUDED.status,
            completed_by_id=EXCLUDED.completed_by_id,
            completed_by_name=EXCLUDED.completed_by_name,
            completed_at=EXCLUDED.completed_at,
            notes=EXCLUDED.notes,
            skip_reason=EXCLUDED.skip_reason`
	_, err := tx.Exec(ctx, query,
		item.ID,
		checklistID,
		item.Code,
		item.Name,
		item.Description,
		item.Category,
		item.Required,
		item.SortOrder,
		item.Status,
		item.CompletedByID,
		item.CompletedByName,
		item.CompletedAt,
		item.Notes,
		item.SkipReason,
	)
	return err
}

func (r *checklistRepository) GetByID(ctx context.Context, id string) (*domain.Checklist, error) {
	const query = `
        SELECT id, owner_ref, type, status, completed_at, created_at, updated_at
        FROM checklists WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *checklistRepository) GetByOwnerRef(ctx context.Context, ownerRef string) (*domain.Checklist, error) {
	const query = `
        SELECT id, owner_ref, type, status, completed_at, created_at, updated_at
        FROM checklists WHERE owner_ref=$1`
	return r.fetchSingle(ctx, query, ownerRef)
}

func (r *checklistRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Checklist, error) {
	var checklist domain.Checklist
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&checklist.ID,
		&checklist.OwnerRef,
		&checklist.Type,
		&checklist.Status,
		&checklist.CompletedAt,
		&checklist.CreatedAt,
		&checklist.UpdatedAt,
	); err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, checklist.ID)
	if err != nil {
		return nil, err
	}
	checklist.Restore(items)
	return &checklist, nil
}

func (r *checklistRepository) listItems(ctx context.Context, checklistID string) ([]domain.ChecklistItem, error) {
	const query = `
        SELECT id, code, name, description, category, required, sort_order,
               status, completed_by_id, completed_by_name, completed_at, notes, skip_reason
        FROM checklist_items WHERE checklist_id=$1 ORDER BY sort_order ASC`
	rows, err := r.pool.Query(ctx, query, checklistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ChecklistItem
	for rows.Next() {
		var item domain.ChecklistItem
		if err := rows.Scan(
			&item.ID,
			&item.Code,
			&item.Name,
			&item.Description,
			&item.Category,
			&item.Required,
			&item.SortOrder,
			&item.Status,
			&item.CompletedByID,
			&item.CompletedByName,
			&item.CompletedAt,
			&item.Notes,
			&item.SkipReason,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
