package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/onboarding-service/internal/domain"
)

// WorkItemFilter captures queue search parameters.
type WorkItemFilter struct {
	Statuses     []domain.WorkItemStatus
	Priorities   []domain.Priority
	RiskLevels   []domain.RiskLevel
	AssignedToID *string
	EntityType   *string
	Country      *string
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// WorkItemRepository encapsulates work item persistence. It stores the
// aggregate row only; history and comments have their own repositories.
type WorkItemRepository interface {
	Create(ctx context.Context, item *domain.WorkItem) error
	Update(ctx context.Context, item *domain.WorkItem) error
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	GetByNumber(ctx context.Context, number string) (*domain.WorkItem, error)
	ListWithFilter(ctx context.Context, filter WorkItemFilter) ([]domain.WorkItem, error)
	ListDueForRefresh(ctx context.Context, before time.Time, limit int) ([]domain.WorkItem, error)
}

type workItemRepository struct {
	pool *pgxpool.Pool
}

// NewWorkItemRepository instantiates repository.
func NewWorkItemRepository(pool *pgxpool.Pool) WorkItemRepository {
	return &workItemRepository{pool: pool}
}

const workItemColumns = `id, number, case_ref, applicant_name, entity_type, country,
               status, priority, risk_level,
               assigned_to_id, assigned_to_name, assigned_at,
               requires_approval, approved_by_id, approved_by_name, approved_at, approval_notes,
               rejection_reason, rejected_at,
               due_date, next_refresh_date, last_refreshed_at, refresh_count,
               created_by_id, created_by_name, created_at, updated_at`

func (r *workItemRepository) Create(ctx context.Context, item *domain.WorkItem) error {
	const query = `
        INSERT INTO work_items (id, number, case_ref, applicant_name, entity_type, country,
            status, priority, risk_level,
            assigned_to_id, assigned_to_name, assigned_at,
            requires_approval, approved_by_id, approved_by_name, approved_at, approval_notes,
            rejection_reason, rejected_at,
            due_date, next_refresh_date, last_refreshed_at, refresh_count,
            created_by_id, created_by_name, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`
	_, err := r.pool.Exec(ctx, query, workItemArgs(item)...)
	return err
}

func (r *workItemRepository) Update(ctx context.Context, item *domain.WorkItem) error {
	const query = `
        UPDATE work_items SET
            status=$2, priority=$3,
            assigned_to_id=$4, assigned_to_name=$5, assigned_at=$6,
            approved_by_id=$7, approved_by_name=$8, approved_at=$9, approval_notes=$10,
            rejection_reason=$11, rejected_at=$12,
            next_refresh_date=$13, last_refreshed_at=$14, refresh_count=$15,
            updated_at=$16
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query,
		item.ID,
		item.Status,
		item.Priority,
		item.AssignedToID,
		item.AssignedToName,
		item.AssignedAt,
		item.ApprovedByID,
		item.ApprovedByName,
		item.ApprovedAt,
		item.ApprovalNotes,
		item.RejectionReason,
		item.RejectedAt,
		item.NextRefreshDate,
		item.LastRefreshedAt,
		item.RefreshCount,
		item.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *workItemRepository) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM work_items WHERE id=$1`, workItemColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *workItemRepository) GetByNumber(ctx context.Context, number string) (*domain.WorkItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM work_items WHERE number=$1`, workItemColumns)
	return r.fetchSingle(ctx, query, number)
}

func (r *workItemRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.WorkItem, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	item, err := scanWorkItem(row)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *workItemRepository) ListWithFilter(ctx context.Context, filter WorkItemFilter) ([]domain.WorkItem, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, priority := range filter.Priorities {
			args = append(args, priority)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.RiskLevels) > 0 {
		placeholders := make([]string, len(filter.RiskLevels))
		for i, risk := range filter.RiskLevels {
			args = append(args, risk)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("risk_level IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if filter.EntityType != nil {
		args = append(args, *filter.EntityType)
		clauses = append(clauses, fmt.Sprintf("entity_type=$%d", len(args)))
	}
	if filter.Country != nil {
		args = append(args, *filter.Country)
		clauses = append(clauses, fmt.Sprintf("country=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(applicant_name) LIKE %s OR LOWER(number) LIKE %s OR LOWER(case_ref) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM work_items WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		workItemColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

func (r *workItemRepository) ListDueForRefresh(ctx context.Context, before time.Time, limit int) ([]domain.WorkItem, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM work_items
        WHERE status=$1 AND next_refresh_date IS NOT NULL AND next_refresh_date <= $2
        ORDER BY next_refresh_date ASC LIMIT %d`, workItemColumns, limit)

	rows, err := r.pool.Query(ctx, query, domain.WorkItemStatusCompleted, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

func workItemArgs(item *domain.WorkItem) []any {
	return []any{
		item.ID,
		item.Number,
		item.CaseRef,
		item.ApplicantName,
		item.EntityType,
		item.Country,
		item.Status,
		item.Priority,
		item.Risk,
		item.AssignedToID,
		item.AssignedToName,
		item.AssignedAt,
		item.RequiresApproval,
		item.ApprovedByID,
		item.ApprovedByName,
		item.ApprovedAt,
		item.ApprovalNotes,
		item.RejectionReason,
		item.RejectedAt,
		item.DueDate,
		item.NextRefreshDate,
		item.LastRefreshedAt,
		item.RefreshCount,
		item.CreatedByID,
		item.CreatedByName,
		item.CreatedAt,
		item.UpdatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkItem(row rowScanner) (*domain.WorkItem, error) {
	var item domain.WorkItem
	if err := row.Scan(
		&item.ID,
		&item.Number,
		&item.CaseRef,
		&item.ApplicantName,
		&item.EntityType,
		&item.Country,
		&item.Status,
		&item.Priority,
		&item.Risk,
		&item.AssignedToID,
		&item.AssignedToName,
		&item.AssignedAt,
		&item.RequiresApproval,
		&item.ApprovedByID,
		&item.ApprovedByName,
		&item.ApprovedAt,
		&item.ApprovalNotes,
		&item.RejectionReason,
		&item.RejectedAt,
		&item.DueDate,
		&item.NextRefreshDate,
		&item.LastRefreshedAt,
		&item.RefreshCount,
		&item.CreatedByID,
		&item.CreatedByName,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &item, nil
}

func scanWorkItems(rows pgx.Rows) ([]domain.WorkItem, error) {
	var result []domain.WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}
