package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faturroziq/bot-atechh/internal/domain/shared"
)

func TestSessionState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "closing", StateClosing.String())
	assert.Equal(t, "logged_out", StateLoggedOut.String())
	assert.Equal(t, "unknown", SessionState(99).String())
}

func TestStateMachine_HappyPath(t *testing.T) {
	var m stateMachine
	require.Equal(t, StateDisconnected, m.State())

	require.NoError(t, m.Transition(StateConnecting))
	require.NoError(t, m.Transition(StateOpen))
	require.NoError(t, m.Transition(StateClosing))
	require.NoError(t, m.Transition(StateDisconnected))
}

func TestStateMachine_DropAndReconnect(t *testing.T) {
	var m stateMachine

	require.NoError(t, m.Transition(StateConnecting))
	require.NoError(t, m.Transition(StateOpen))

	// Socket drops.
	require.NoError(t, m.Transition(StateDisconnected))
	require.NoError(t, m.Transition(StateConnecting))
	require.NoError(t, m.Transition(StateOpen))
}

func TestStateMachine_RejectsInvalidEdges(t *testing.T) {
	var m stateMachine

	// Cannot open without connecting first.
	err := m.Transition(StateOpen)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStateTransition)
	assert.Equal(t, StateDisconnected, m.State(), "failed transition must not change state")

	// Cannot close what was never open.
	assert.Error(t, m.Transition(StateClosing))
}

func TestStateMachine_LoggedOutIsTerminal(t *testing.T) {
	var m stateMachine

	require.NoError(t, m.Transition(StateConnecting))
	require.NoError(t, m.Transition(StateOpen))
	require.NoError(t, m.Transition(StateLoggedOut))

	for _, to := range []SessionState{StateDisconnected, StateConnecting, StateOpen, StateClosing} {
		err := m.Transition(to)
		assert.ErrorIs(t, err, shared.ErrStateTransition, "logged_out -> %s must be rejected", to)
	}
	assert.Equal(t, StateLoggedOut, m.State())
}
