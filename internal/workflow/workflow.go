// Package workflow validates status values and transitions for documents
// carrying a finite status set. Transitions are unrestricted between declared
// states: the data layer accepts any jump, matching how the UI-suggested
// pipelines behave in practice. Terminal states are declared for reporting but
// carry no lockout.
package workflow

import (
	"fmt"

	"github.com/meridian-crm/meridian/internal/shared"
)

// Status is a named document state.
type Status string

// Workflow is the declared status set for one document type.
type Workflow struct {
	name     string
	initial  Status
	states   []Status
	members  map[Status]bool
	terminal map[Status]bool
}

// New declares a workflow. The first state is the initial one.
func New(name string, states ...Status) Workflow {
	if len(states) == 0 {
		panic("workflow: at least one state required")
	}
	members := make(map[Status]bool, len(states))
	for _, s := range states {
		members[s] = true
	}
	return Workflow{
		name:     name,
		initial:  states[0],
		states:   states,
		members:  members,
		terminal: map[Status]bool{},
	}
}

// Terminal marks states as terminal and returns the workflow.
func (w Workflow) Terminal(states ...Status) Workflow {
	terminal := make(map[Status]bool, len(states))
	for _, s := range states {
		if !w.members[s] {
			panic(fmt.Sprintf("workflow %s: terminal state %s not declared", w.name, s))
		}
		terminal[s] = true
	}
	w.terminal = terminal
	return w
}

// Name returns the workflow's document type name.
func (w Workflow) Name() string { return w.name }

// Initial returns the state assigned at creation.
func (w Workflow) Initial() Status { return w.initial }

// States returns the declared states in order.
func (w Workflow) States() []Status { return w.states }

// IsTerminal reports whether the state is declared terminal.
func (w Workflow) IsTerminal(s Status) bool { return w.terminal[s] }

// Validate checks membership of the status in the declared set.
func (w Workflow) Validate(s Status) error {
	if !w.members[s] {
		return fmt.Errorf("%w: %q is not a %s status", shared.ErrInvalidStatus, s, w.name)
	}
	return nil
}

// Transition validates the requested status and reports whether applying it
// changes the record. Equal statuses are an idempotent no-op: the write may
// proceed but no activity entry should be recorded.
func (w Workflow) Transition(current, next Status) (changed bool, err error) {
	if err := w.Validate(next); err != nil {
		return false, err
	}
	return current != next, nil
}
