// Package workflow defines the declarative registry of specialized
// assistants: which tools each one carries, which of those tools are
// sensitive, and which delegation tool on the primary assistant hands a
// conversation over to it.
package workflow

import (
	"errors"
	"fmt"
)

// CompleteTool is the distinguished tool id a specialized assistant calls
// to hand control back to the primary assistant. It is routed, never
// executed.
const CompleteTool = "complete_or_escalate"

// ErrUnknownTool is returned by Validate and Classify for a tool id no
// workflow declares.
var ErrUnknownTool = errors.New("workflow: unknown tool")

// Safety classifies a tool's side-effect risk.
type Safety int

const (
	// Safe tools are read-only and execute without approval.
	Safe Safety = iota
	// Sensitive tools mutate bookings and require human approval.
	Sensitive
)

func (s Safety) String() string {
	if s == Sensitive {
		return "sensitive"
	}
	return "safe"
}

// ToolDef declares one tool an assistant may call.
type ToolDef struct {
	Name        string
	Description string
	InputSchema map[string]any
	Sensitive   bool
}

// Entry declares one specialized workflow.
type Entry struct {
	// ID is the workflow identity pushed onto the dialog stack.
	ID string
	// Persona is the assistant persona id used by the intent producer.
	Persona string
	// DelegationTool is the primary assistant's tool that activates this
	// workflow.
	DelegationTool string
	// Tools is the closed set of tools this workflow may call, not
	// counting the completion tool.
	Tools []ToolDef
}

// Registry is the static map of workflows and tool classifications. Build
// one with New (or Default) and run Validate once at startup; lookups
// after that never fail on known ids.
type Registry struct {
	entries      []Entry
	byID         map[string]*Entry
	byDelegation map[string]*Entry
	primaryTools []ToolDef
	safety       map[string]Safety
}

// New builds a registry from workflow entries plus the primary
// assistant's own tools.
func New(primaryTools []ToolDef, entries []Entry) *Registry {
	r := &Registry{
		entries:      entries,
		byID:         make(map[string]*Entry, len(entries)),
		byDelegation: make(map[string]*Entry, len(entries)),
		primaryTools: primaryTools,
		safety:       make(map[string]Safety),
	}
	for i := range r.entries {
		e := &r.entries[i]
		r.byID[e.ID] = e
		r.byDelegation[e.DelegationTool] = e
		for _, t := range e.Tools {
			r.safety[t.Name] = safetyOf(t)
		}
	}
	for _, t := range primaryTools {
		r.safety[t.Name] = safetyOf(t)
	}
	return r
}

func safetyOf(t ToolDef) Safety {
	if t.Sensitive {
		return Sensitive
	}
	return Safe
}

// Validate checks the registry for configuration errors: duplicate
// workflow or delegation ids, tool ids declared both safe and sensitive,
// and reserved-name collisions. Run once at startup.
func (r *Registry) Validate() error {
	seenWF := make(map[string]bool)
	seenDeleg := make(map[string]bool)
	for _, e := range r.entries {
		if e.ID == "" {
			return fmt.Errorf("workflow entry with empty id")
		}
		if seenWF[e.ID] {
			return fmt.Errorf("duplicate workflow id %q", e.ID)
		}
		seenWF[e.ID] = true
		if e.DelegationTool == "" {
			return fmt.Errorf("workflow %q has no delegation tool", e.ID)
		}
		if seenDeleg[e.DelegationTool] {
			return fmt.Errorf("duplicate delegation tool %q", e.DelegationTool)
		}
		seenDeleg[e.DelegationTool] = true
		if e.DelegationTool == CompleteTool {
			return fmt.Errorf("workflow %q uses reserved tool id %q as delegation", e.ID, CompleteTool)
		}
		if err := checkTools(e.ID, e.Tools); err != nil {
			return err
		}
	}
	if err := checkTools("primary", r.primaryTools); err != nil {
		return err
	}
	// A tool shared across workflows must carry one classification.
	seen := make(map[string]Safety)
	for _, e := range r.entries {
		for _, t := range e.Tools {
			if prev, ok := seen[t.Name]; ok && prev != safetyOf(t) {
				return fmt.Errorf("tool %q declared both safe and sensitive", t.Name)
			}
			seen[t.Name] = safetyOf(t)
		}
	}
	for _, t := range r.primaryTools {
		if prev, ok := seen[t.Name]; ok && prev != safetyOf(t) {
			return fmt.Errorf("tool %q declared both safe and sensitive", t.Name)
		}
	}
	return nil
}

func checkTools(owner string, tools []ToolDef) error {
	names := make(map[string]bool, len(tools))
	for _, t := range tools {
		if t.Name == "" {
			return fmt.Errorf("workflow %q declares a tool with empty name", owner)
		}
		if t.Name == CompleteTool {
			return fmt.Errorf("workflow %q declares reserved tool id %q", owner, CompleteTool)
		}
		if names[t.Name] {
			return fmt.Errorf("workflow %q declares tool %q twice", owner, t.Name)
		}
		names[t.Name] = true
	}
	return nil
}

// Classify returns the safety class for a tool id. Unknown ids return
// ErrUnknownTool; with a validated registry this only happens for ids the
// producer invented.
func (r *Registry) Classify(toolName string) (Safety, error) {
	s, ok := r.safety[toolName]
	if !ok {
		return Safe, fmt.Errorf("%w: %q", ErrUnknownTool, toolName)
	}
	return s, nil
}

// ByID looks up a workflow entry.
func (r *Registry) ByID(id string) (*Entry, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// ByDelegation resolves a delegation tool id to its workflow, if any.
func (r *Registry) ByDelegation(toolName string) (*Entry, bool) {
	e, ok := r.byDelegation[toolName]
	return e, ok
}

// IsDelegation reports whether a tool id is a delegation tool.
func (r *Registry) IsDelegation(toolName string) bool {
	_, ok := r.byDelegation[toolName]
	return ok
}

// Entries returns all workflow entries in declaration order.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// PrimaryTools returns the primary assistant's own tool set.
func (r *Registry) PrimaryTools() []ToolDef {
	return r.primaryTools
}

// ToolsFor returns the tool set visible to a persona: the workflow's own
// tools for a specialized assistant, or the primary tools plus delegation
// tools for the primary assistant.
func (r *Registry) ToolsFor(workflowID string) []ToolDef {
	if e, ok := r.byID[workflowID]; ok {
		tools := make([]ToolDef, 0, len(e.Tools)+1)
		tools = append(tools, e.Tools...)
		tools = append(tools, completeToolDef())
		return tools
	}
	tools := make([]ToolDef, 0, len(r.primaryTools)+len(r.entries))
	tools = append(tools, r.primaryTools...)
	for _, e := range r.entries {
		tools = append(tools, delegationToolDef(e))
	}
	return tools
}
