package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/tripdesk/internal/checkpoint"
	"github.com/soyeahso/tripdesk/internal/dialog"
	"github.com/soyeahso/tripdesk/internal/domain"
	"github.com/soyeahso/tripdesk/internal/intent"
	"github.com/soyeahso/tripdesk/internal/logging"
	"github.com/soyeahso/tripdesk/internal/workflow"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

// mockExec records executions and returns canned results.
type mockExec struct {
	mu      sync.Mutex
	calls   []string
	results map[string]string
	errs    map[string]error
}

func (m *mockExec) Execute(_ context.Context, name string, _ json.RawMessage, _ domain.UserContext) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
	if err, ok := m.errs[name]; ok {
		return "", err
	}
	if out, ok := m.results[name]; ok {
		return out, nil
	}
	return "ok", nil
}

func (m *mockExec) executed(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func newTestOrchestrator(producer intent.Producer) (*Orchestrator, *mockExec, *checkpoint.MemoryStore) {
	exec := &mockExec{}
	store := checkpoint.NewMemoryStore()
	o := New(workflow.Default(), producer, exec, store, silentLog())
	return o, exec, store
}

// seedThread checkpoints a conversation already inside a workflow frame.
func seedThread(t *testing.T, store checkpoint.Store, threadID, workflowID string) {
	t.Helper()
	conv := domain.NewConversation(threadID, domain.UserContext{PassengerID: "3442 587242"})
	conv.Append(domain.Message{Role: domain.RoleUser, Content: "I need help with a booking"})
	require.NoError(t, conv.Stack.Push(dialog.Frame{WorkflowID: workflowID, EnteredAt: 1}))
	blob, err := json.Marshal(conv)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), threadID, blob))
}

func lastToolResult(t *testing.T, conv *domain.Conversation, callID string) domain.Message {
	t.Helper()
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		if conv.Messages[i].Role == domain.RoleTool && conv.Messages[i].ToolCallID == callID {
			return conv.Messages[i]
		}
	}
	t.Fatalf("no tool result for call %s", callID)
	return domain.Message{}
}

// --- basic turn tests ---

func TestTurnPlainReply(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Text: "Happy to help with your trip."},
	}}
	o, exec, _ := newTestOrchestrator(producer)

	res, err := o.Message(context.Background(), "t-1", domain.UserContext{PassengerID: "p"}, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Happy to help with your trip.", res.Reply)
	assert.False(t, res.Suspended)
	assert.Equal(t, dialog.Primary, res.ActiveWorkflow)
	assert.Empty(t, exec.calls)
}

func TestTurnSafeToolExecutesOnce(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: "search_flights", Arguments: json.RawMessage(`{}`)}}},
		{Text: "Found two flights."},
	}}
	o, exec, _ := newTestOrchestrator(producer)

	res, err := o.Message(context.Background(), "t-1", domain.UserContext{PassengerID: "p"}, "find flights")
	require.NoError(t, err)
	assert.Equal(t, "Found two flights.", res.Reply)
	assert.Equal(t, 1, exec.executed("search_flights"))

	conv, err := o.Status(context.Background(), "t-1")
	require.NoError(t, err)
	result := lastToolResult(t, conv, "c-1")
	assert.Equal(t, domain.ToolStatusOK, result.Status)
}

func TestTurnToolFailureContinues(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: "search_flights"}}},
		{Text: "Sorry, the search failed."},
	}}
	o, exec, _ := newTestOrchestrator(producer)
	exec.errs = map[string]error{"search_flights": errors.New("database offline")}

	res, err := o.Message(context.Background(), "t-1", domain.UserContext{PassengerID: "p"}, "find flights")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, the search failed.", res.Reply)

	conv, err := o.Status(context.Background(), "t-1")
	require.NoError(t, err)
	result := lastToolResult(t, conv, "c-1")
	assert.Equal(t, domain.ToolStatusFailed, result.Status)
	assert.Contains(t, result.Content, "database offline")
}

func TestTurnUnknownToolFailsGracefully(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: "made_up_tool"}}},
		{Text: "Let me try something else."},
	}}
	o, exec, _ := newTestOrchestrator(producer)

	_, err := o.Message(context.Background(), "t-1", domain.UserContext{PassengerID: "p"}, "hi")
	require.NoError(t, err)
	assert.Empty(t, exec.calls)

	conv, err := o.Status(context.Background(), "t-1")
	require.NoError(t, err)
	result := lastToolResult(t, conv, "c-1")
	assert.Equal(t, domain.ToolStatusFailed, result.Status)
	assert.Contains(t, result.Content, "not available")
}

func TestTurnProducerError(t *testing.T) {
	producer := &intent.MockProducer{
		ProduceFunc: func(context.Context, string, domain.UserContext, []domain.Message) (*intent.Reply, error) {
			return nil, fmt.Errorf("%w: rate limited", intent.ErrProducer)
		},
	}
	o, _, _ := newTestOrchestrator(producer)

	res, err := o.Message(context.Background(), "t-1", domain.UserContext{PassengerID: "p"}, "hello")
	require.ErrorIs(t, err, intent.ErrProducer)
	require.NotNil(t, res)
	assert.Contains(t, res.Reply, "sorry")
	assert.Equal(t, dialog.Primary, res.ActiveWorkflow)

	// The apology is part of history and the checkpoint landed.
	conv, err := o.Status(context.Background(), "t-1")
	require.NoError(t, err)
	last := conv.Messages[len(conv.Messages)-1]
	assert.Equal(t, domain.RoleAssistant, last.Role)
	assert.Contains(t, last.Content, "sorry")
}

func TestTurnStepCap(t *testing.T) {
	producer := &intent.MockProducer{
		ProduceFunc: func(context.Context, string, domain.UserContext, []domain.Message) (*intent.Reply, error) {
			return &intent.Reply{Proposals: []domain.ToolCall{{ID: "c", Name: "search_flights"}}}, nil
		},
	}
	o, exec, _ := newTestOrchestrator(producer)

	res, err := o.Message(context.Background(), "t-1", domain.UserContext{PassengerID: "p"}, "loop")
	require.NoError(t, err)
	assert.False(t, res.Suspended)
	assert.Equal(t, stepCapNote, res.Reply)
	assert.Equal(t, maxStepsPerTurn, exec.executed("search_flights"))
}

// --- delegation tests ---

func TestDelegationSwitchesPersona(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: "to_flight_booking_assistant", Arguments: json.RawMessage(`{"request":"change my flight"}`)}}},
		{Text: "I can help with your flight."},
	}}
	o, _, _ := newTestOrchestrator(producer)

	res, err := o.Message(context.Background(), "t-1", domain.UserContext{PassengerID: "p"}, "change my flight")
	require.NoError(t, err)
	assert.Equal(t, workflow.FlightWorkflow, res.ActiveWorkflow)

	// Second produce ran under the flight persona.
	assert.Equal(t, []string{dialog.Primary, workflow.FlightWorkflow}, producer.Calls)

	conv, err := o.Status(context.Background(), "t-1")
	require.NoError(t, err)
	entry := lastToolResult(t, conv, "c-1")
	assert.Equal(t, domain.ToolStatusOK, entry.Status)
	assert.Contains(t, entry.Content, "The assistant is now the flight updates assistant")
}

func TestDelegationDiscardsSiblings(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{
			{ID: "c-1", Name: "search_flights"},
			{ID: "c-2", Name: "to_book_car_rental"},
		}},
		{Text: "Let's find you a car."},
	}}
	o, exec, _ := newTestOrchestrator(producer)

	_, err := o.Message(context.Background(), "t-1", domain.UserContext{PassengerID: "p"}, "rent a car")
	require.NoError(t, err)
	assert.Empty(t, exec.calls)

	conv, err := o.Status(context.Background(), "t-1")
	require.NoError(t, err)
	discarded := lastToolResult(t, conv, "c-1")
	assert.Equal(t, domain.ToolStatusRejected, discarded.Status)
}

func TestCompletionPopsFrame(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: workflow.CompleteTool, Arguments: json.RawMessage(`{"reason":"done"}`)}}},
		{Text: "Anything else I can help with?"},
	}}
	o, _, store := newTestOrchestrator(producer)
	seedThread(t, store, "t-1", workflow.HotelWorkflow)

	res, err := o.Message(context.Background(), "t-1", domain.UserContext{}, "that's all")
	require.NoError(t, err)
	assert.Equal(t, dialog.Primary, res.ActiveWorkflow)

	// First produce under the hotel persona, then back at primary.
	assert.Equal(t, []string{workflow.HotelWorkflow, dialog.Primary}, producer.Calls)

	conv, err := o.Status(context.Background(), "t-1")
	require.NoError(t, err)
	leave := lastToolResult(t, conv, "c-1")
	assert.Contains(t, leave.Content, "Resuming dialog with the host assistant")
}

// --- approval gate tests ---

func TestSensitiveSuspends(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: "cancel_ticket", Arguments: json.RawMessage(`{"ticket_no":"7240005432906569"}`)}}},
	}}
	o, exec, _ := newTestOrchestrator(producer)
	seedThread(t, o.checkpoints, "t-1", workflow.FlightWorkflow)
	_ = exec

	res, err := o.Message(context.Background(), "t-1", domain.UserContext{}, "cancel my ticket")
	require.NoError(t, err)
	assert.True(t, res.Suspended)
	require.NotNil(t, res.Pending)
	assert.Equal(t, "cancel_ticket", res.Pending.Call.Name)
	assert.JSONEq(t, `{"ticket_no":"7240005432906569"}`, string(res.Pending.Call.Arguments))

	// Nothing ran.
	assert.Zero(t, exec.executed("cancel_ticket"))
}

func TestApproveExecutesExactlyOnce(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: "cancel_ticket"}}},
		{Text: "Your ticket is cancelled."},
	}}
	o, exec, _ := newTestOrchestrator(producer)
	seedThread(t, o.checkpoints, "t-1", workflow.FlightWorkflow)

	res, err := o.Message(context.Background(), "t-1", domain.UserContext{}, "cancel it")
	require.NoError(t, err)
	require.True(t, res.Suspended)

	res, err = o.Approve(context.Background(), "t-1")
	require.NoError(t, err)
	assert.False(t, res.Suspended)
	assert.Equal(t, "Your ticket is cancelled.", res.Reply)
	assert.Equal(t, 1, exec.executed("cancel_ticket"))

	// A second approve has nothing to act on.
	_, err = o.Approve(context.Background(), "t-1")
	assert.ErrorIs(t, err, ErrNoPendingApproval)
	assert.Equal(t, 1, exec.executed("cancel_ticket"))
}

func TestDenyNeverExecutes(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: "cancel_ticket"}}},
		{Text: "Understood, I won't cancel it."},
	}}
	o, exec, _ := newTestOrchestrator(producer)
	seedThread(t, o.checkpoints, "t-1", workflow.FlightWorkflow)

	_, err := o.Message(context.Background(), "t-1", domain.UserContext{}, "cancel it")
	require.NoError(t, err)

	res, err := o.Deny(context.Background(), "t-1", "wrong ticket, keep it")
	require.NoError(t, err)
	assert.False(t, res.Suspended)
	assert.Zero(t, exec.executed("cancel_ticket"))

	conv, err := o.Status(context.Background(), "t-1")
	require.NoError(t, err)
	rejected := lastToolResult(t, conv, "c-1")
	assert.Equal(t, domain.ToolStatusRejected, rejected.Status)
	assert.Equal(t, "wrong ticket, keep it", rejected.Content)
}

func TestDenyDefaultReason(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: "book_hotel"}}},
		{Text: "No problem."},
	}}
	o, _, _ := newTestOrchestrator(producer)
	seedThread(t, o.checkpoints, "t-1", workflow.HotelWorkflow)

	_, err := o.Message(context.Background(), "t-1", domain.UserContext{}, "book it")
	require.NoError(t, err)
	_, err = o.Deny(context.Background(), "t-1", "")
	require.NoError(t, err)

	conv, err := o.Status(context.Background(), "t-1")
	require.NoError(t, err)
	rejected := lastToolResult(t, conv, "c-1")
	assert.Equal(t, defaultDenyReason, rejected.Content)
}

func TestRedirectAbandonsPermanently(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: "cancel_ticket"}}},
		{Text: "Sure, what would you like to know?"},
	}}
	o, exec, _ := newTestOrchestrator(producer)
	seedThread(t, o.checkpoints, "t-1", workflow.FlightWorkflow)

	res, err := o.Message(context.Background(), "t-1", domain.UserContext{}, "cancel it")
	require.NoError(t, err)
	require.True(t, res.Suspended)

	// Redirect: an ordinary message instead of a decision.
	res, err = o.Message(context.Background(), "t-1", domain.UserContext{}, "actually, what's the baggage policy?")
	require.NoError(t, err)
	assert.False(t, res.Suspended)
	assert.Zero(t, exec.executed("cancel_ticket"))

	conv, err := o.Status(context.Background(), "t-1")
	require.NoError(t, err)
	abandoned := lastToolResult(t, conv, "c-1")
	assert.Equal(t, domain.ToolStatusRejected, abandoned.Status)

	// The abandoned call can never be approved afterwards.
	_, err = o.Approve(context.Background(), "t-1")
	assert.ErrorIs(t, err, ErrNoPendingApproval)
	assert.Zero(t, exec.executed("cancel_ticket"))
}

func TestApprovalOnUnknownThread(t *testing.T) {
	o, _, _ := newTestOrchestrator(&intent.MockProducer{})
	_, err := o.Approve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNoPendingApproval)
}

func TestTwoSensitiveInOneBatch(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{
			{ID: "c-1", Name: "book_hotel"},
			{ID: "c-2", Name: "cancel_hotel"},
		}},
		{Text: "All done."},
	}}
	o, exec, _ := newTestOrchestrator(producer)
	seedThread(t, o.checkpoints, "t-1", workflow.HotelWorkflow)

	res, err := o.Message(context.Background(), "t-1", domain.UserContext{}, "swap my hotels")
	require.NoError(t, err)
	require.True(t, res.Suspended)
	assert.Equal(t, "book_hotel", res.Pending.Call.Name)

	// Approving the first surfaces the second; order is preserved.
	res, err = o.Approve(context.Background(), "t-1")
	require.NoError(t, err)
	require.True(t, res.Suspended)
	assert.Equal(t, "cancel_hotel", res.Pending.Call.Name)
	assert.Equal(t, 1, exec.executed("book_hotel"))
	assert.Zero(t, exec.executed("cancel_hotel"))

	res, err = o.Approve(context.Background(), "t-1")
	require.NoError(t, err)
	assert.False(t, res.Suspended)
	assert.Equal(t, []string{"book_hotel", "cancel_hotel"}, exec.calls)
}

// --- persistence tests ---

func TestCheckpointRoundTripMidSuspension(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	exec := &mockExec{}

	first := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: "cancel_ticket"}}},
	}}
	o1 := New(workflow.Default(), first, exec, store, silentLog())
	seedThread(t, store, "t-1", workflow.FlightWorkflow)

	res, err := o1.Message(context.Background(), "t-1", domain.UserContext{}, "cancel it")
	require.NoError(t, err)
	require.True(t, res.Suspended)

	// A fresh process restores from the checkpoint alone.
	second := &intent.MockProducer{Script: []*intent.Reply{
		{Text: "Your ticket is cancelled."},
	}}
	o2 := New(workflow.Default(), second, exec, store, silentLog())

	res, err = o2.Approve(context.Background(), "t-1")
	require.NoError(t, err)
	assert.False(t, res.Suspended)
	assert.Equal(t, "Your ticket is cancelled.", res.Reply)
	assert.Equal(t, 1, exec.executed("cancel_ticket"))
}

// --- end-to-end scenario ---

func TestFlightCancellationScenario(t *testing.T) {
	producer := &intent.MockProducer{Script: []*intent.Reply{
		{Proposals: []domain.ToolCall{{ID: "c-1", Name: "to_flight_booking_assistant", Arguments: json.RawMessage(`{"request":"cancel ticket"}`)}}},
		{Proposals: []domain.ToolCall{{ID: "c-2", Name: "fetch_user_flight_information"}}},
		{Proposals: []domain.ToolCall{{ID: "c-3", Name: "cancel_ticket", Arguments: json.RawMessage(`{"ticket_no":"7240005432906569"}`)}}},
		{Proposals: []domain.ToolCall{{ID: "c-4", Name: workflow.CompleteTool, Arguments: json.RawMessage(`{"reason":"ticket cancelled"}`)}}},
		{Text: "Your ticket has been cancelled. Anything else?"},
	}}
	o, exec, _ := newTestOrchestrator(producer)

	// Turn 1: delegate, run the safe lookup, suspend on the cancellation.
	res, err := o.Message(context.Background(), "t-1", domain.UserContext{PassengerID: "3442 587242"}, "please cancel my flight")
	require.NoError(t, err)
	require.True(t, res.Suspended)
	assert.Equal(t, workflow.FlightWorkflow, res.ActiveWorkflow)
	assert.Equal(t, "cancel_ticket", res.Pending.Call.Name)
	assert.Equal(t, 1, exec.executed("fetch_user_flight_information"))
	assert.Zero(t, exec.executed("cancel_ticket"))

	// Turn 2: approve; the workflow completes and control returns home.
	res, err = o.Approve(context.Background(), "t-1")
	require.NoError(t, err)
	assert.False(t, res.Suspended)
	assert.Equal(t, dialog.Primary, res.ActiveWorkflow)
	assert.Equal(t, "Your ticket has been cancelled. Anything else?", res.Reply)
	assert.Equal(t, 1, exec.executed("cancel_ticket"))

	assert.Equal(t, []string{
		dialog.Primary,
		workflow.FlightWorkflow,
		workflow.FlightWorkflow,
		workflow.FlightWorkflow,
		dialog.Primary,
	}, producer.Calls)
}
