package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-crm/meridian/internal/shared"
)

func testWorkflow() Workflow {
	return New("contract",
		"DRAFT", "PENDING_APPROVAL", "ACTIVE", "EXPIRED", "TERMINATED",
	).Terminal("EXPIRED", "TERMINATED")
}

func TestInitial(t *testing.T) {
	wf := testWorkflow()
	assert.Equal(t, Status("DRAFT"), wf.Initial())
}

func TestValidate(t *testing.T) {
	wf := testWorkflow()

	require.NoError(t, wf.Validate("ACTIVE"))

	err := wf.Validate("SHIPPED")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestTransitionChange(t *testing.T) {
	wf := testWorkflow()

	changed, err := wf.Transition("DRAFT", "ACTIVE")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestTransitionIdempotent(t *testing.T) {
	wf := testWorkflow()

	changed, err := wf.Transition("ACTIVE", "ACTIVE")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestTransitionBackwardsAllowed(t *testing.T) {
	// No adjacency constraint: any declared state may follow any other.
	wf := testWorkflow()

	changed, err := wf.Transition("ACTIVE", "DRAFT")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	wf := testWorkflow()

	_, err := wf.Transition("DRAFT", "FROZEN")
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestTerminalDeclaration(t *testing.T) {
	wf := testWorkflow()

	assert.True(t, wf.IsTerminal("EXPIRED"))
	assert.True(t, wf.IsTerminal("TERMINATED"))
	assert.False(t, wf.IsTerminal("ACTIVE"))

	// Terminal states are declared, not enforced: leaving one is permitted.
	changed, err := wf.Transition("TERMINATED", "ACTIVE")
	require.NoError(t, err)
	assert.True(t, changed)
}
