package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/tripdesk/internal/domain"
	"github.com/soyeahso/tripdesk/internal/logging"
	"github.com/soyeahso/tripdesk/internal/metrics"
	"github.com/soyeahso/tripdesk/internal/workflow"
)

// ToolExecutor runs a named tool and returns its result payload. A
// returned error means the tool ran and failed (business rule violation,
// missing row); it becomes a failed tool result, not a turn failure.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args json.RawMessage, user domain.UserContext) (string, error)
}

// gate executes a batch of proposals in order, pausing at the first
// sensitive call. It owns the pending-approval record on the
// conversation; only one sensitive call is ever outstanding.
type gate struct {
	registry *workflow.Registry
	exec     ToolExecutor
	log      *logging.Logger
}

// run processes calls in proposal order. completeCall, when non-nil, is a
// queued completion signal that survives a suspension. Returns true if
// the batch suspended on a sensitive call.
func (g *gate) run(ctx context.Context, conv *domain.Conversation, calls []domain.ToolCall, completeCall *domain.ToolCall) bool {
	for i, call := range calls {
		safety, err := g.registry.Classify(call.Name)
		if err != nil {
			// The producer proposed a tool the active assistant does not
			// have. Surface it as a failed result and keep going.
			g.appendResult(conv, call, domain.ToolStatusFailed,
				"Error: tool "+call.Name+" is not available to the current assistant.")
			continue
		}
		if safety == workflow.Sensitive {
			conv.Pending = &domain.PendingApproval{
				ID:           uuid.NewString(),
				Call:         call,
				WorkflowID:   conv.ActiveWorkflow(),
				Remaining:    calls[i+1:],
				CompleteCall: completeCall,
				CreatedAt:    time.Now().UTC(),
			}
			metrics.ActiveSuspensions.Inc()
			g.log.Info().
				Str("thread", conv.ThreadID).
				Str("tool", call.Name).
				Msg("sensitive call awaiting approval")
			return true
		}
		g.execute(ctx, conv, call)
	}
	return false
}

// execute runs one safe or approved call exactly once and appends its
// result.
func (g *gate) execute(ctx context.Context, conv *domain.Conversation, call domain.ToolCall) {
	out, err := g.exec.Execute(ctx, call.Name, call.Arguments, conv.User)
	if err != nil {
		metrics.ToolExecutions.WithLabelValues(call.Name, "failed").Inc()
		g.log.Warn().
			Str("thread", conv.ThreadID).
			Str("tool", call.Name).
			Err(err).
			Msg("tool execution failed")
		g.appendResult(conv, call, domain.ToolStatusFailed, "Error: "+err.Error())
		return
	}
	metrics.ToolExecutions.WithLabelValues(call.Name, "ok").Inc()
	g.appendResult(conv, call, domain.ToolStatusOK, out)
}

func (g *gate) appendResult(conv *domain.Conversation, call domain.ToolCall, status domain.ToolStatus, content string) {
	conv.Append(domain.Message{
		Role:       domain.RoleTool,
		Content:    content,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Status:     status,
	})
}
