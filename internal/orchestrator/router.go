package orchestrator

import (
	"github.com/soyeahso/tripdesk/internal/dialog"
	"github.com/soyeahso/tripdesk/internal/domain"
	"github.com/soyeahso/tripdesk/internal/workflow"
)

// Action says what to do with an assistant step's proposals.
type Action int

const (
	// ActionExecute forwards the proposals to the execution gate.
	ActionExecute Action = iota
	// ActionDelegate pushes a workflow frame; the delegation call is
	// consumed, sibling proposals are discarded.
	ActionDelegate
	// ActionComplete runs the remaining proposals, then pops the frame.
	ActionComplete
)

// Decision is the routed form of one assistant step.
type Decision struct {
	Action Action

	// Delegate and DelegationCall are set for ActionDelegate.
	Delegate       *workflow.Entry
	DelegationCall domain.ToolCall
	// Discarded holds sibling proposals consumed by a delegation.
	Discarded []domain.ToolCall

	// CompleteCall is set for ActionComplete.
	CompleteCall domain.ToolCall

	// Execute holds the calls headed for the gate (all proposals for
	// ActionExecute, the non-completion ones for ActionComplete).
	Execute []domain.ToolCall
}

// Route decides how to handle one batch of proposals given the current
// dialog stack. It is a pure function: fixed priority, no side effects.
//
// Priority: delegation (stack empty) beats everything in the batch;
// completion (stack non-empty) defers to its sibling proposals but pops
// afterwards; everything else goes to the gate unchanged.
func Route(stack *dialog.Stack, reg *workflow.Registry, proposals []domain.ToolCall) Decision {
	if stack.Depth() == 0 {
		for i, call := range proposals {
			entry, ok := reg.ByDelegation(call.Name)
			if !ok {
				continue
			}
			discarded := make([]domain.ToolCall, 0, len(proposals)-1)
			discarded = append(discarded, proposals[:i]...)
			discarded = append(discarded, proposals[i+1:]...)
			return Decision{
				Action:         ActionDelegate,
				Delegate:       entry,
				DelegationCall: call,
				Discarded:      discarded,
			}
		}
	} else {
		for i, call := range proposals {
			if call.Name != workflow.CompleteTool {
				continue
			}
			rest := make([]domain.ToolCall, 0, len(proposals)-1)
			rest = append(rest, proposals[:i]...)
			rest = append(rest, proposals[i+1:]...)
			return Decision{
				Action:       ActionComplete,
				CompleteCall: call,
				Execute:      rest,
			}
		}
	}
	return Decision{Action: ActionExecute, Execute: proposals}
}
