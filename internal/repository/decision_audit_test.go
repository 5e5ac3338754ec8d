package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestDecisionAuditRepository_Create(t *testing.T) {
	now := time.Now()
	auditID := uuid.New()

	tests := []struct {
		name      string
		audit     *domain.DecisionAudit
		mockSetup func(mock pgxmock.PgxPoolIface, a *domain.DecisionAudit)
		wantErr   bool
	}{
		{
			name: "verification with liveness",
			audit: &domain.DecisionAudit{
				ID:             auditID,
				Kind:           domain.DecisionKindVerify,
				Outcome:        "spoof_rejected",
				Similarity:     ptr(0.93),
				LivenessPassed: ptr(false),
				FailedSignals:  []string{"contrast"},
				FaceCount:      1,
				LatencyMs:      42,
			},
			mockSetup: func(mock pgxmock.PgxPoolIface, a *domain.DecisionAudit) {
				mock.ExpectQuery(`INSERT INTO decision_audits`).
					WithArgs(auditID, "verify", "spoof_rejected", a.Similarity, a.LivenessPassed, []string{"contrast"}, 1, 0, int64(42)).
					WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
			},
		},
		{
			name: "generates id and empty signal list",
			audit: &domain.DecisionAudit{
				Kind:         domain.DecisionKindBatch,
				Outcome:      "recognized",
				FaceCount:    12,
				MatchedCount: 9,
			},
			mockSetup: func(mock pgxmock.PgxPoolIface, a *domain.DecisionAudit) {
				mock.ExpectQuery(`INSERT INTO decision_audits`).
					WithArgs(pgxmock.AnyArg(), "batch", "recognized", (*float64)(nil), (*bool)(nil), []string{}, 12, 9, int64(0)).
					WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
			},
		},
		{
			name:  "database error",
			audit: &domain.DecisionAudit{ID: auditID, Kind: domain.DecisionKindEnroll, Outcome: "enrolled"},
			mockSetup: func(mock pgxmock.PgxPoolIface, a *domain.DecisionAudit) {
				mock.ExpectQuery(`INSERT INTO decision_audits`).
					WithArgs(auditID, "enroll", "enrolled", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), 0, 0, int64(0)).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock, tt.audit)
			repo := NewDecisionAuditRepository(mock)

			err = repo.Create(context.Background(), tt.audit)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "create decision audit")
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, tt.audit.ID)
				assert.Equal(t, now, tt.audit.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDecisionAuditRepository_ListRecent(t *testing.T) {
	now := time.Now()
	since := now.Add(-time.Hour)
	id1, id2 := uuid.New(), uuid.New()
	columns := []string{"id", "kind", "outcome", "similarity", "liveness_passed", "failed_signals", "face_count", "matched_count", "latency_ms", "created_at"}

	tests := []struct {
		name      string
		filter    DecisionAuditFilter
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantLen   int
		wantErr   bool
	}{
		{
			name:   "no filter uses default limit",
			filter: DecisionAuditFilter{},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(columns).
					AddRow(id1, "verify", "verified", ptr(0.91), ptr(true), []string{}, 1, 1, int64(80), now).
					AddRow(id2, "batch", "recognized", (*float64)(nil), (*bool)(nil), []string{}, 5, 3, int64(120), now)
				mock.ExpectQuery(`SELECT id, kind, outcome, .* FROM decision_audits ORDER BY created_at DESC LIMIT \$1`).
					WithArgs(50).
					WillReturnRows(rows)
			},
			wantLen: 2,
		},
		{
			name:   "kind and since filters with clamped limit",
			filter: DecisionAuditFilter{Kind: domain.DecisionKindVerify, Since: since, Limit: 10000},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(columns).
					AddRow(id1, "verify", "spoof_rejected", ptr(0.99), ptr(false), []string{"moire"}, 1, 0, int64(75), now)
				mock.ExpectQuery(`FROM decision_audits WHERE kind = \$1 AND created_at >= \$2 ORDER BY created_at DESC LIMIT \$3`).
					WithArgs("verify", since, 500).
					WillReturnRows(rows)
			},
			wantLen: 1,
		},
		{
			name:   "query error",
			filter: DecisionAuditFilter{Limit: 5},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`FROM decision_audits ORDER BY created_at DESC LIMIT \$1`).
					WithArgs(5).
					WillReturnError(errors.New("timeout"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)
			repo := NewDecisionAuditRepository(mock)

			audits, err := repo.ListRecent(context.Background(), tt.filter)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "list decision audits")
				assert.Nil(t, audits)
			} else {
				require.NoError(t, err)
				require.Len(t, audits, tt.wantLen)
				assert.Equal(t, id1, audits[0].ID)
				assert.NotEmpty(t, audits[0].Kind)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDecisionAuditRepository_ListRecent_ScansNullables(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	rows := pgxmock.NewRows([]string{"id", "kind", "outcome", "similarity", "liveness_passed", "failed_signals", "face_count", "matched_count", "latency_ms", "created_at"}).
		AddRow(uuid.New(), "verify", "spoof_rejected", ptr(0.88), ptr(false), []string{"sharpness", "contrast"}, 1, 0, int64(33), now)
	mock.ExpectQuery(`FROM decision_audits`).WithArgs(1).WillReturnRows(rows)

	audits, err := NewDecisionAuditRepository(mock).ListRecent(context.Background(), DecisionAuditFilter{Limit: 1})

	require.NoError(t, err)
	require.Len(t, audits, 1)
	a := audits[0]
	assert.Equal(t, domain.DecisionKindVerify, a.Kind)
	require.NotNil(t, a.Similarity)
	assert.InDelta(t, 0.88, *a.Similarity, 1e-9)
	require.NotNil(t, a.LivenessPassed)
	assert.False(t, *a.LivenessPassed)
	assert.Equal(t, []string{"sharpness", "contrast"}, a.FailedSignals)
	assert.Equal(t, int64(33), a.LatencyMs)
}

func TestDecisionAuditRepository_CountByOutcome(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"outcome", "count"}).
		AddRow("verified", 12).
		AddRow("spoof_rejected", 3)
	mock.ExpectQuery(`SELECT outcome, COUNT\(\*\) FROM decision_audits WHERE kind = \$1 GROUP BY outcome`).
		WithArgs("verify").
		WillReturnRows(rows)

	counts, err := NewDecisionAuditRepository(mock).CountByOutcome(context.Background(), DecisionAuditFilter{Kind: domain.DecisionKindVerify})

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"verified": 12, "spoof_rejected": 3}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecisionAuditFilter_Limit(t *testing.T) {
	assert.Equal(t, defaultAuditLimit, DecisionAuditFilter{}.limit())
	assert.Equal(t, 7, DecisionAuditFilter{Limit: 7}.limit())
	assert.Equal(t, maxAuditLimit, DecisionAuditFilter{Limit: maxAuditLimit + 1}.limit())
}
