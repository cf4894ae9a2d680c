package intent

import (
	"context"

	"github.com/soyeahso/tripdesk/internal/domain"
)

// MockProducer is a test double for Producer. When Script is set, each
// call pops the next reply; ProduceFunc overrides everything.
type MockProducer struct {
	ProduceFunc func(ctx context.Context, workflowID string, user domain.UserContext, history []domain.Message) (*Reply, error)
	Script      []*Reply

	// Calls records the workflow id of each Produce invocation, in order.
	Calls []string

	next int
}

func (m *MockProducer) Produce(ctx context.Context, workflowID string, user domain.UserContext, history []domain.Message) (*Reply, error) {
	m.Calls = append(m.Calls, workflowID)
	if m.ProduceFunc != nil {
		return m.ProduceFunc(ctx, workflowID, user, history)
	}
	if m.next < len(m.Script) {
		r := m.Script[m.next]
		m.next++
		return r, nil
	}
	return &Reply{Text: "mock reply"}, nil
}
