package orchestrator

import (
	"time"

	"github.com/soyeahso/tripdesk/internal/domain"
)

// Event types published to a Sink as turns progress.
const (
	EventMessage          = "message"
	EventApprovalRequired = "approval_required"
	EventApprovalResolved = "approval_resolved"
)

// Event is one observable step of a turn, suitable for streaming to a
// client.
type Event struct {
	Type      string                  `json:"type"`
	ThreadID  string                  `json:"threadId"`
	Message   *domain.Message         `json:"message,omitempty"`
	Pending   *domain.PendingApproval `json:"pending,omitempty"`
	Decision  string                  `json:"decision,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// Sink receives turn events. Implementations must not block; the
// orchestrator calls Emit inline while holding the thread lock.
type Sink interface {
	Emit(ev Event)
}

// nopSink drops events when no sink is configured.
type nopSink struct{}

func (nopSink) Emit(Event) {}
