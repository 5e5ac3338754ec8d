package ws

import (
	"time"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

type EventType string

const (
	EventDecisionRecorded EventType = "decision.recorded"
)

type Event struct {
	Type      EventType            `json:"type"`
	Kind      domain.DecisionKind  `json:"kind"`
	Data      domain.DecisionAudit `json:"data"`
	Timestamp time.Time            `json:"timestamp"`
}
