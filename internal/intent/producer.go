// Package intent turns conversation history into the next assistant step:
// free text, tool-call proposals, or both. The orchestrator never parses
// user language itself; everything language-shaped lives behind Producer.
package intent

import (
	"context"
	"errors"

	"github.com/soyeahso/tripdesk/internal/domain"
)

// ErrProducer wraps any failure from a Producer implementation so the
// orchestrator can treat them uniformly.
var ErrProducer = errors.New("intent: producer failed")

// Reply is one assistant step: optional text plus zero or more proposed
// tool calls.
type Reply struct {
	Text      string            `json:"text,omitempty"`
	Proposals []domain.ToolCall `json:"proposals,omitempty"`
}

// Final reports whether the reply ends the turn (no pending tool work).
func (r *Reply) Final() bool {
	return len(r.Proposals) == 0
}

// Producer generates the next assistant step for a persona given the
// conversation so far.
type Producer interface {
	// Produce returns the next step for the persona identified by
	// workflowID (dialog.Primary for the primary assistant). The user
	// context travels with the call so implementations can ground
	// prompts in the passenger's identity.
	Produce(ctx context.Context, workflowID string, user domain.UserContext, history []domain.Message) (*Reply, error)
}
