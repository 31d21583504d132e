package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/onboarding-service/internal/domain"
)

// ChecklistTemplateRepository reads requirement templates maintained by
// the configuration service. This side only reads them.
type ChecklistTemplateRepository interface {
	ListByType(ctx context.Context, checklistType domain.ChecklistType) ([]domain.ItemTemplate, error)
}

type checklistTemplateRepository struct {
	pool *pgxpool.Pool
}

// NewChecklistTemplateRepository instantiates repository.
func NewChecklistTemplateRepository(pool *pgxpool.Pool) ChecklistTemplateRepository {
	return &checklistTemplateRepository{pool: pool}
}

func (r *checklistTemplateRepository) ListByType(ctx context.Context, checklistType domain.ChecklistType) ([]domain.ItemTemplate, error) {
	const query = `
        SELECT code, name, description, category, required, sort_order
        FROM checklist_templates WHERE checklist_type=$1 AND active_flag
        ORDER BY sort_order ASC`
	rows, err := r.pool.Query(ctx, query, checklistType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []domain.ItemTemplate
	for rows.Next() {
		var tpl domain.ItemTemplate
		if err := rows.Scan(
			&tpl.Code,
			&tpl.Name,
			&tpl.Description,
			&tpl.Category,
			&tpl.Required,
			&tpl.SortOrder,
		); err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, rows.Err()
}
