package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// DecisionAuditFilter narrows audit queries. Zero values mean "any".
type DecisionAuditFilter struct {
	Kind  domain.DecisionKind
	Since time.Time
	Limit int
}

func (f DecisionAuditFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultAuditLimit
	case f.Limit > maxAuditLimit:
		return maxAuditLimit
	default:
		return f.Limit
	}
}

// where builds the WHERE clause and its positional args.
func (f DecisionAuditFilter) where() (string, []any) {
	var conds []string
	var args []any

	if f.Kind != "" {
		args = append(args, string(f.Kind))
		conds = append(conds, fmt.Sprintf("kind = $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type DecisionAuditRepository struct {
	pool PgxPool
}

func NewDecisionAuditRepository(pool PgxPool) *DecisionAuditRepository {
	return &DecisionAuditRepository{pool: pool}
}

func (r *DecisionAuditRepository) Create(ctx context.Context, a *domain.DecisionAudit) error {
	query := `
		INSERT INTO decision_audits (id, kind, outcome, similarity, liveness_passed, failed_signals, face_count, matched_count, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	failed := a.FailedSignals
	if failed == nil {
		failed = []string{}
	}

	err := r.pool.QueryRow(ctx, query,
		a.ID,
		string(a.Kind),
		a.Outcome,
		a.Similarity,
		a.LivenessPassed,
		failed,
		a.FaceCount,
		a.MatchedCount,
		a.LatencyMs,
	).Scan(&a.CreatedAt)

	if err != nil {
		return fmt.Errorf("create decision audit: %w", err)
	}

	return nil
}

// ListRecent returns the newest audits first.
func (r *DecisionAuditRepository) ListRecent(ctx context.Context, filter DecisionAuditFilter) ([]domain.DecisionAudit, error) {
	where, args := filter.where()
	args = append(args, filter.limit())

	query := `SELECT id, kind, outcome, similarity, liveness_passed, failed_signals, face_count, matched_count, latency_ms, created_at FROM decision_audits` +
		where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list decision audits: %w", err)
	}

	audits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DecisionAudit, error) {
		var a domain.DecisionAudit
		var kind string
		err := row.Scan(
			&a.ID,
			&kind,
			&a.Outcome,
			&a.Similarity,
			&a.LivenessPassed,
			&a.FailedSignals,
			&a.FaceCount,
			&a.MatchedCount,
			&a.LatencyMs,
			&a.CreatedAt,
		)
		a.Kind = domain.DecisionKind(kind)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan decision audits: %w", err)
	}

	return audits, nil
}

// CountByOutcome aggregates audits per outcome.
func (r *DecisionAuditRepository) CountByOutcome(ctx context.Context, filter DecisionAuditFilter) (map[string]int, error) {
	where, args := filter.where()
	query := `SELECT outcome, COUNT(*) FROM decision_audits` + where + ` GROUP BY outcome`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count decision audits: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan outcome count: %w", err)
		}
		counts[outcome] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome counts: %w", err)
	}

	return counts, nil
}

var _ DecisionAuditRepositoryInterface = (*DecisionAuditRepository)(nil)
