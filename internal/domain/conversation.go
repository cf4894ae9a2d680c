// Package domain holds the shared conversation types: messages, tool
// calls, pending approvals, and the per-thread conversation record.
package domain

import (
	"encoding/json"
	"time"

	"github.com/soyeahso/tripdesk/internal/dialog"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ToolStatus classifies the outcome carried by a tool-result message.
type ToolStatus string

const (
	ToolStatusOK       ToolStatus = "ok"
	ToolStatusFailed   ToolStatus = "failed"
	ToolStatusRejected ToolStatus = "rejected"
)

// ToolCall is one tool invocation proposed by an assistant.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Message is a single entry in a conversation history.
//
// Assistant messages may carry proposed tool calls; tool messages carry
// the result of exactly one call, linked back via ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	ToolCallID string     `json:"toolCallId,omitempty"`
	ToolName   string     `json:"toolName,omitempty"`
	Status     ToolStatus `json:"status,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// UserContext is the immutable identity attached to a thread at creation.
type UserContext struct {
	PassengerID string `json:"passengerId"`
}

// PendingApproval records a sensitive tool call waiting on a human
// decision, together with the rest of its proposal batch.
type PendingApproval struct {
	ID         string     `json:"id"`
	Call       ToolCall   `json:"call"`
	WorkflowID string     `json:"workflowId"`
	Remaining  []ToolCall `json:"remaining,omitempty"`
	// CompleteCall is a completion signal queued behind this batch; the
	// dialog frame pops once the batch finishes.
	CompleteCall *ToolCall `json:"completeCall,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Conversation is the full per-thread state: append-only message history,
// user context, the dialog stack, and any suspension.
type Conversation struct {
	ThreadID  string           `json:"threadId"`
	User      UserContext      `json:"user"`
	Messages  []Message        `json:"messages"`
	Stack     dialog.Stack     `json:"stack"`
	Pending   *PendingApproval `json:"pending,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// NewConversation creates an empty conversation for a thread.
func NewConversation(threadID string, user UserContext) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ThreadID:  threadID,
		User:      user,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a message and bumps the update timestamp.
func (c *Conversation) Append(m Message) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	c.Messages = append(c.Messages, m)
	c.UpdatedAt = m.Timestamp
}

// Suspended reports whether the conversation is waiting on an approval.
func (c *Conversation) Suspended() bool {
	return c.Pending != nil
}

// ActiveWorkflow returns the workflow owning the conversation, or
// dialog.Primary when no delegation is active.
func (c *Conversation) ActiveWorkflow() string {
	return c.Stack.Current()
}
