// Package orchestrator runs conversation turns: it feeds history to the
// intent producer, routes proposals through the dialog stack, executes
// safe tools, and suspends sensitive ones at the approval gate.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/soyeahso/tripdesk/internal/checkpoint"
	"github.com/soyeahso/tripdesk/internal/dialog"
	"github.com/soyeahso/tripdesk/internal/domain"
	"github.com/soyeahso/tripdesk/internal/intent"
	"github.com/soyeahso/tripdesk/internal/logging"
	"github.com/soyeahso/tripdesk/internal/metrics"
	"github.com/soyeahso/tripdesk/internal/workflow"
)

// ErrNoPendingApproval is returned for an approval decision on a thread
// that is not suspended.
var ErrNoPendingApproval = errors.New("orchestrator: no pending approval")

// maxStepsPerTurn bounds produce/execute cycles within one turn so a
// looping producer cannot spin forever.
const maxStepsPerTurn = 8

const (
	defaultDenyReason = "The user rejected this operation."
	redirectReason    = "Superseded by a new user message."

	producerFailureNote = "I'm sorry, I ran into a problem processing that request. Please try again."
	stepCapNote         = "I wasn't able to finish that request. Could you rephrase or try again?"

	resumingNote = "Resuming dialog with the host assistant. Please reflect on the past conversation and assist the user as needed."
)

func entryNote(persona string) string {
	return "The assistant is now the " + persona + ". Reflect on the above conversation between the host assistant and the user. " +
		"The user's intent is unsatisfied. Use the provided tools to assist the user."
}

// TurnResult is what a turn hands back to the caller: either a final
// assistant reply or a suspension with the pending call exposed for
// display.
type TurnResult struct {
	ThreadID       string                  `json:"threadId"`
	Reply          string                  `json:"reply,omitempty"`
	Suspended      bool                    `json:"suspended"`
	Pending        *domain.PendingApproval `json:"pending,omitempty"`
	ActiveWorkflow string                  `json:"activeWorkflow"`
}

// Orchestrator drives turns for many independent threads. Turns on one
// thread are strictly sequential; threads never block each other.
type Orchestrator struct {
	registry    *workflow.Registry
	producer    intent.Producer
	gate        *gate
	checkpoints checkpoint.Store
	events      Sink
	log         *logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEvents wires a sink for turn events.
func WithEvents(s Sink) Option {
	return func(o *Orchestrator) { o.events = s }
}

// New builds an orchestrator. The registry must already be validated.
func New(reg *workflow.Registry, producer intent.Producer, exec ToolExecutor, cps checkpoint.Store, log *logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:    reg,
		producer:    producer,
		checkpoints: cps,
		events:      nopSink{},
		log:         log.Sub("orchestrator"),
		locks:       make(map[string]*sync.Mutex),
	}
	o.gate = &gate{registry: reg, exec: exec, log: o.log}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) threadLock(threadID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[threadID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[threadID] = l
	}
	return l
}

// Message runs one turn for an ordinary user message. If the thread is
// suspended, the pending sensitive call is abandoned first (a redirect):
// it will never execute, even if approved later.
func (o *Orchestrator) Message(ctx context.Context, threadID string, user domain.UserContext, text string) (*TurnResult, error) {
	l := o.threadLock(threadID)
	l.Lock()
	defer l.Unlock()

	conv, err := o.loadOrCreate(ctx, threadID, user)
	if err != nil {
		return nil, err
	}
	emitFrom := len(conv.Messages)

	if conv.Pending != nil {
		o.abandonPending(conv)
	}

	conv.Append(domain.Message{Role: domain.RoleUser, Content: text})
	return o.runTurn(ctx, conv, emitFrom)
}

// Approve executes the pending sensitive call and resumes the suspended
// turn.
func (o *Orchestrator) Approve(ctx context.Context, threadID string) (*TurnResult, error) {
	return o.decide(ctx, threadID, true, "")
}

// Deny rejects the pending sensitive call with a reason and resumes the
// turn; the underlying operation never runs.
func (o *Orchestrator) Deny(ctx context.Context, threadID, reason string) (*TurnResult, error) {
	return o.decide(ctx, threadID, false, reason)
}

func (o *Orchestrator) decide(ctx context.Context, threadID string, approve bool, reason string) (*TurnResult, error) {
	l := o.threadLock(threadID)
	l.Lock()
	defer l.Unlock()

	conv, err := o.load(ctx, threadID)
	if err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return nil, ErrNoPendingApproval
		}
		return nil, err
	}
	if conv.Pending == nil {
		return nil, ErrNoPendingApproval
	}
	emitFrom := len(conv.Messages)

	pending := conv.Pending
	conv.Pending = nil
	metrics.ActiveSuspensions.Dec()

	if approve {
		metrics.Approvals.WithLabelValues("approve").Inc()
		o.events.Emit(Event{Type: EventApprovalResolved, ThreadID: threadID, Decision: "approve", Timestamp: time.Now().UTC()})
		o.gate.execute(ctx, conv, pending.Call)
	} else {
		if reason == "" {
			reason = defaultDenyReason
		}
		metrics.Approvals.WithLabelValues("deny").Inc()
		o.events.Emit(Event{Type: EventApprovalResolved, ThreadID: threadID, Decision: "deny", Timestamp: time.Now().UTC()})
		metrics.ToolExecutions.WithLabelValues(pending.Call.Name, "rejected").Inc()
		o.gate.appendResult(conv, pending.Call, domain.ToolStatusRejected, reason)
	}

	if o.gate.run(ctx, conv, pending.Remaining, pending.CompleteCall) {
		return o.finishSuspended(ctx, conv, emitFrom, "")
	}
	if pending.CompleteCall != nil {
		o.pop(conv, *pending.CompleteCall)
	}
	return o.runSteps(ctx, conv, emitFrom)
}

// Status returns the current conversation state for display.
func (o *Orchestrator) Status(ctx context.Context, threadID string) (*domain.Conversation, error) {
	l := o.threadLock(threadID)
	l.Lock()
	defer l.Unlock()
	return o.load(ctx, threadID)
}

// --- turn internals ---

func (o *Orchestrator) runTurn(ctx context.Context, conv *domain.Conversation, emitFrom int) (*TurnResult, error) {
	start := time.Now()
	res, err := o.runSteps(ctx, conv, emitFrom)
	metrics.TurnDuration.Observe(time.Since(start).Seconds())
	return res, err
}

func (o *Orchestrator) runSteps(ctx context.Context, conv *domain.Conversation, emitFrom int) (*TurnResult, error) {
	var lastText string
	for step := 0; step < maxStepsPerTurn; step++ {
		reply, err := o.producer.Produce(ctx, conv.ActiveWorkflow(), conv.User, conv.Messages)
		if err != nil {
			o.log.Error().Str("thread", conv.ThreadID).Err(err).Msg("intent producer failed")
			conv.Append(domain.Message{Role: domain.RoleAssistant, Content: producerFailureNote})
			metrics.TurnsProcessed.WithLabelValues("producer_error").Inc()
			if cpErr := o.finish(ctx, conv, emitFrom); cpErr != nil {
				return nil, cpErr
			}
			return o.result(conv, producerFailureNote), fmt.Errorf("producing assistant step: %w", err)
		}
		if reply.Text != "" {
			lastText = reply.Text
		}
		o.appendAssistant(conv, reply)

		if reply.Final() {
			metrics.TurnsProcessed.WithLabelValues("reply").Inc()
			if err := o.finish(ctx, conv, emitFrom); err != nil {
				return nil, err
			}
			return o.result(conv, lastText), nil
		}

		dec := Route(&conv.Stack, o.registry, reply.Proposals)
		switch dec.Action {
		case ActionDelegate:
			o.delegate(conv, dec)
		case ActionComplete:
			if o.gate.run(ctx, conv, dec.Execute, &dec.CompleteCall) {
				return o.finishSuspended(ctx, conv, emitFrom, lastText)
			}
			o.pop(conv, dec.CompleteCall)
		case ActionExecute:
			if o.gate.run(ctx, conv, dec.Execute, nil) {
				return o.finishSuspended(ctx, conv, emitFrom, lastText)
			}
		}
	}

	o.log.Warn().Str("thread", conv.ThreadID).Msg("turn hit step cap")
	conv.Append(domain.Message{Role: domain.RoleAssistant, Content: stepCapNote})
	metrics.TurnsProcessed.WithLabelValues("capped").Inc()
	if err := o.finish(ctx, conv, emitFrom); err != nil {
		return nil, err
	}
	return o.result(conv, stepCapNote), nil
}

func (o *Orchestrator) appendAssistant(conv *domain.Conversation, reply *intent.Reply) {
	conv.Append(domain.Message{
		Role:      domain.RoleAssistant,
		Content:   reply.Text,
		ToolCalls: reply.Proposals,
	})
}

func (o *Orchestrator) delegate(conv *domain.Conversation, dec Decision) {
	frame := dialog.Frame{
		WorkflowID: dec.Delegate.ID,
		EnteredAt:  len(conv.Messages),
		Since:      time.Now().UTC(),
	}
	if err := conv.Stack.Push(frame); err != nil {
		// Route only delegates on an empty stack, so this is a bug guard.
		o.log.Error().Str("thread", conv.ThreadID).Err(err).Msg("delegation push failed")
		o.gate.appendResult(conv, dec.DelegationCall, domain.ToolStatusFailed,
			"Error: delegation is only available to the primary assistant.")
		return
	}
	metrics.Delegations.WithLabelValues(dec.Delegate.ID).Inc()
	o.log.Info().
		Str("thread", conv.ThreadID).
		Str("workflow", dec.Delegate.ID).
		Msg("delegated to specialized assistant")

	o.gate.appendResult(conv, dec.DelegationCall, domain.ToolStatusOK, entryNote(dec.Delegate.Persona))
	for _, call := range dec.Discarded {
		o.gate.appendResult(conv, call, domain.ToolStatusRejected,
			"Not executed: the conversation was handed to a specialized assistant.")
	}
}

func (o *Orchestrator) pop(conv *domain.Conversation, completeCall domain.ToolCall) {
	frame, err := conv.Stack.Pop()
	if err != nil {
		o.gate.appendResult(conv, completeCall, domain.ToolStatusFailed,
			"Error: no specialized assistant is active.")
		return
	}
	o.log.Info().
		Str("thread", conv.ThreadID).
		Str("workflow", frame.WorkflowID).
		Msg("workflow completed, returning to primary assistant")
	o.gate.appendResult(conv, completeCall, domain.ToolStatusOK, resumingNote)
}

// abandonPending rejects the pending call and everything queued behind
// it. The batch is gone for good; a later approve gets
// ErrNoPendingApproval.
func (o *Orchestrator) abandonPending(conv *domain.Conversation) {
	pending := conv.Pending
	conv.Pending = nil
	metrics.ActiveSuspensions.Dec()
	metrics.Approvals.WithLabelValues("abandoned").Inc()

	metrics.ToolExecutions.WithLabelValues(pending.Call.Name, "rejected").Inc()
	o.gate.appendResult(conv, pending.Call, domain.ToolStatusRejected, redirectReason)
	for _, call := range pending.Remaining {
		metrics.ToolExecutions.WithLabelValues(call.Name, "rejected").Inc()
		o.gate.appendResult(conv, call, domain.ToolStatusRejected, redirectReason)
	}
	if pending.CompleteCall != nil {
		o.gate.appendResult(conv, *pending.CompleteCall, domain.ToolStatusRejected, redirectReason)
	}
	o.log.Info().
		Str("thread", conv.ThreadID).
		Str("tool", pending.Call.Name).
		Msg("pending approval abandoned by redirect")
}

func (o *Orchestrator) finishSuspended(ctx context.Context, conv *domain.Conversation, emitFrom int, lastText string) (*TurnResult, error) {
	metrics.TurnsProcessed.WithLabelValues("suspended").Inc()
	if err := o.finish(ctx, conv, emitFrom); err != nil {
		return nil, err
	}
	o.events.Emit(Event{
		Type:      EventApprovalRequired,
		ThreadID:  conv.ThreadID,
		Pending:   conv.Pending,
		Timestamp: time.Now().UTC(),
	})
	return o.result(conv, lastText), nil
}

// finish checkpoints the conversation and emits every message appended
// during this turn.
func (o *Orchestrator) finish(ctx context.Context, conv *domain.Conversation, emitFrom int) error {
	blob, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encoding conversation: %w", err)
	}
	if err := o.checkpoints.Save(ctx, conv.ThreadID, blob); err != nil {
		return fmt.Errorf("checkpointing thread %s: %w", conv.ThreadID, err)
	}
	for i := emitFrom; i < len(conv.Messages); i++ {
		m := conv.Messages[i]
		o.events.Emit(Event{
			Type:      EventMessage,
			ThreadID:  conv.ThreadID,
			Message:   &m,
			Timestamp: m.Timestamp,
		})
	}
	return nil
}

func (o *Orchestrator) result(conv *domain.Conversation, lastText string) *TurnResult {
	return &TurnResult{
		ThreadID:       conv.ThreadID,
		Reply:          lastText,
		Suspended:      conv.Suspended(),
		Pending:        conv.Pending,
		ActiveWorkflow: conv.ActiveWorkflow(),
	}
}

func (o *Orchestrator) load(ctx context.Context, threadID string) (*domain.Conversation, error) {
	blob, err := o.checkpoints.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	var conv domain.Conversation
	if err := json.Unmarshal(blob, &conv); err != nil {
		return nil, fmt.Errorf("decoding checkpoint for thread %s: %w", threadID, err)
	}
	return &conv, nil
}

func (o *Orchestrator) loadOrCreate(ctx context.Context, threadID string, user domain.UserContext) (*domain.Conversation, error) {
	conv, err := o.load(ctx, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return domain.NewConversation(threadID, user), nil
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}
