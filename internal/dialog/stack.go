// Package dialog tracks which assistant currently owns a conversation.
//
// The stack holds at most one frame: the primary assistant delegates into a
// specialized workflow by pushing a frame, and the workflow hands control
// back by popping it. Nested delegation between workflows is not a
// supported transition and must go back through the primary assistant.
package dialog

import (
	"encoding/json"
	"errors"
	"time"
)

// Primary is the identity reported when no specialized workflow is active.
const Primary = "primary"

var (
	// ErrInvalidTransition is returned when a push would nest delegations.
	ErrInvalidTransition = errors.New("dialog: invalid transition")

	// ErrEmptyStack is returned when popping with no active frame.
	ErrEmptyStack = errors.New("dialog: empty stack")
)

// Frame records one active specialized workflow delegation.
type Frame struct {
	WorkflowID string    `json:"workflowId"`
	EnteredAt  int       `json:"enteredAtMessageIndex"`
	Since      time.Time `json:"since"`
}

// Stack is the ordered set of active dialog frames, top = active.
// The zero value is an empty stack (primary assistant active).
type Stack struct {
	frames []Frame
}

// Push activates a specialized workflow. It fails with ErrInvalidTransition
// unless the primary assistant is currently active.
func (s *Stack) Push(f Frame) error {
	if len(s.frames) > 0 {
		return ErrInvalidTransition
	}
	s.frames = append(s.frames, f)
	return nil
}

// Pop deactivates the current workflow and restores the primary assistant.
// It fails with ErrEmptyStack if no workflow is active.
func (s *Stack) Pop() (Frame, error) {
	if len(s.frames) == 0 {
		return Frame{}, ErrEmptyStack
	}
	top := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return top, nil
}

// Current returns the active workflow identity, or Primary if the stack is
// empty. It never fails.
func (s *Stack) Current() string {
	if len(s.frames) == 0 {
		return Primary
	}
	return s.frames[len(s.frames)-1].WorkflowID
}

// Active returns the top frame, if any.
func (s *Stack) Active() (Frame, bool) {
	if len(s.frames) == 0 {
		return Frame{}, false
	}
	return s.frames[len(s.frames)-1], true
}

// Depth returns the number of active frames (0 or 1 under the push
// discipline).
func (s *Stack) Depth() int {
	return len(s.frames)
}

// MarshalJSON encodes the stack as a plain frame array so checkpoints stay
// readable.
func (s Stack) MarshalJSON() ([]byte, error) {
	if s.frames == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.frames)
}

// UnmarshalJSON restores the stack from a frame array.
func (s *Stack) UnmarshalJSON(data []byte) error {
	var frames []Frame
	if err := json.Unmarshal(data, &frames); err != nil {
		return err
	}
	s.frames = frames
	return nil
}
