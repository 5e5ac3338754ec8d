package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/repository"
)

// DecisionReader is the read side of the decision audit trail
type DecisionReader interface {
	ListRecent(ctx context.Context, filter repository.DecisionAuditFilter) ([]domain.DecisionAudit, error)
	CountByOutcome(ctx context.Context, filter repository.DecisionAuditFilter) (map[string]int, error)
}

// DecisionsHandler exposes recorded decisions
type DecisionsHandler struct {
	repo   DecisionReader
	logger *slog.Logger
}

func NewDecisionsHandler(repo DecisionReader, logger *slog.Logger) *DecisionsHandler {
	return &DecisionsHandler{repo: repo, logger: logger}
}

// DecisionListResponse response for the decision list endpoint
type DecisionListResponse struct {
	Decisions []domain.DecisionAudit `json:"decisions"`
	Count     int                    `json:"count"`
}

// DecisionSummaryResponse response for the summary endpoint
type DecisionSummaryResponse struct {
	Kind     string         `json:"kind,omitempty"`
	Since    string         `json:"since,omitempty"`
	Outcomes map[string]int `json:"outcomes"`
	Total    int            `json:"total"`
}

// List GET /v1/decisions?kind=&since=&limit=
func (h *DecisionsHandler) List(c *fiber.Ctx) error {
	filter, err := parseDecisionFilter(c)
	if err != nil {
		return err
	}

	audits, err := h.repo.ListRecent(c.UserContext(), filter)
	if err != nil {
		return domain.ErrInternal.WithError(fmt.Errorf("list decisions: %w", err))
	}
	if audits == nil {
		audits = []domain.DecisionAudit{}
	}

	return c.JSON(DecisionListResponse{
		Decisions: audits,
		Count:     len(audits),
	})
}

// Summary GET /v1/decisions/summary?kind=&since=
func (h *DecisionsHandler) Summary(c *fiber.Ctx) error {
	filter, err := parseDecisionFilter(c)
	if err != nil {
		return err
	}

	counts, err := h.repo.CountByOutcome(c.UserContext(), filter)
	if err != nil {
		return domain.ErrInternal.WithError(fmt.Errorf("summarize decisions: %w", err))
	}

	resp := DecisionSummaryResponse{
		Kind:     string(filter.Kind),
		Outcomes: counts,
	}
	if resp.Outcomes == nil {
		resp.Outcomes = map[string]int{}
	}
	if !filter.Since.IsZero() {
		resp.Since = filter.Since.UTC().Format(time.RFC3339)
	}
	for _, n := range resp.Outcomes {
		resp.Total += n
	}

	return c.JSON(resp)
}

func parseDecisionFilter(c *fiber.Ctx) (repository.DecisionAuditFilter, error) {
	var filter repository.DecisionAuditFilter

	switch kind := domain.DecisionKind(c.Query("kind")); kind {
	case "":
	case domain.DecisionKindEnroll, domain.DecisionKindVerify, domain.DecisionKindBatch, domain.DecisionKindLiveness:
		filter.Kind = kind
	default:
		return filter, domain.ErrValidationFailed.WithError(fmt.Errorf("unknown kind %q", kind))
	}

	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, domain.ErrValidationFailed.WithError(fmt.Errorf("since: %w", err))
		}
		filter.Since = since
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, domain.ErrValidationFailed.WithError(fmt.Errorf("limit must be a positive integer, got %q", raw))
		}
		filter.Limit = limit
	}

	return filter, nil
}
