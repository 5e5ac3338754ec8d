package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use; pgxmock
// pools satisfy it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DecisionAuditRepositoryInterface defines operations for the decision audit trail
type DecisionAuditRepositoryInterface interface {
	Create(ctx context.Context, audit *domain.DecisionAudit) error
	ListRecent(ctx context.Context, filter DecisionAuditFilter) ([]domain.DecisionAudit, error)
	CountByOutcome(ctx context.Context, filter DecisionAuditFilter) (map[string]int, error)
}
