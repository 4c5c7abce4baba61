package whatsapp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/faturroziq/bot-atechh/internal/domain/shared"
	"github.com/faturroziq/bot-atechh/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION STATE MACHINE
// ══════════════════════════════════════════════════════════════════════════════

// SessionState is the connection lifecycle state of the WhatsApp session.
type SessionState int

const (
	// StateDisconnected is the initial state and the state after any drop.
	StateDisconnected SessionState = iota

	// StateConnecting means a connect or reconnect attempt is in flight.
	StateConnecting

	// StateOpen means the socket is connected and authenticated.
	StateOpen

	// StateClosing means a deliberate shutdown is in progress.
	StateClosing

	// StateLoggedOut is terminal: the device pairing was revoked and only a
	// fresh pairing can recover the session.
	StateLoggedOut
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// validTransitions lists the allowed state changes. LoggedOut has no outgoing
// edges: once revoked, the session object is dead.
var validTransitions = map[SessionState][]SessionState{
	StateDisconnected: {StateConnecting, StateLoggedOut},
	StateConnecting:   {StateOpen, StateDisconnected, StateClosing, StateLoggedOut},
	StateOpen:         {StateClosing, StateDisconnected, StateLoggedOut},
	StateClosing:      {StateDisconnected},
	StateLoggedOut:    {},
}

// stateMachine guards session state changes against the transition table.
type stateMachine struct {
	mu    sync.RWMutex
	state SessionState
}

// State returns the current state.
func (m *stateMachine) State() SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Transition moves to the target state, or fails if the edge is not allowed.
func (m *stateMachine) Transition(to SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, allowed := range validTransitions[m.state] {
		if allowed == to {
			m.state = to
			return nil
		}
	}

	return shared.WrapError("whatsapp", "Transition", shared.ErrStateTransition,
		m.state.String()+" -> "+to.String(), nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION MANAGER
// ══════════════════════════════════════════════════════════════════════════════

// SessionManager drives the session state machine: it connects the client,
// reconnects with bounded backoff when the socket drops, and reports fatal
// conditions the caller must act on.
type SessionManager struct {
	machine stateMachine
	client  *Client
	retrier *retry.Retrier
	logger  *slog.Logger

	fatal  chan error
	runCtx context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// SessionOption customizes the session manager.
type SessionOption func(*SessionManager)

// WithReconnectPolicy bounds the reconnect loop per disconnect event.
func WithReconnectPolicy(maxAttempts int, maxDelay time.Duration) SessionOption {
	return func(sm *SessionManager) {
		sm.retrier = retry.New(
			retry.WithMaxAttempts(maxAttempts),
			retry.WithInitialDelay(2*time.Second),
			retry.WithMaxDelay(maxDelay),
			retry.WithMultiplier(2.0),
			retry.WithJitter(0.2),
		)
	}
}

// NewSessionManager wires a session manager to the client. It registers
// itself as the client's session handler.
func NewSessionManager(client *Client, logger *slog.Logger, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		client:  client,
		retrier: retry.ReconnectRetrier(),
		logger:  logger.With("component", "session"),
		fatal:   make(chan error, 1),
	}

	for _, opt := range opts {
		opt(sm)
	}

	client.SetSessionHandler(sm.handleEvent)
	return sm
}

// State returns the current session state.
func (sm *SessionManager) State() SessionState {
	return sm.machine.State()
}

// Fatal delivers at most one unrecoverable session error: a revoked pairing
// or a reconnect loop that exhausted its attempts.
func (sm *SessionManager) Fatal() <-chan error {
	return sm.fatal
}

// Start performs the initial connect. The context bounds the whole session;
// cancelling it stops reconnect attempts.
func (sm *SessionManager) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	sm.mu.Lock()
	sm.runCtx = runCtx
	sm.cancel = cancel
	sm.mu.Unlock()

	if err := sm.machine.Transition(StateConnecting); err != nil {
		return err
	}

	if err := sm.client.Connect(runCtx); err != nil {
		// Initial connect failed outright; fall back to the retry loop.
		sm.logger.Warn("initial connect failed, retrying", "error", err)
		go sm.reconnect(runCtx)
	}

	return nil
}

// Close shuts the session down deliberately. Safe to call from any state.
func (sm *SessionManager) Close() {
	sm.mu.Lock()
	if sm.cancel != nil {
		sm.cancel()
	}
	sm.mu.Unlock()

	if err := sm.machine.Transition(StateClosing); err != nil {
		// Already disconnected or logged out; nothing to close.
		return
	}

	sm.client.Disconnect()
	_ = sm.machine.Transition(StateDisconnected)
}

// handleEvent reacts to connectivity changes reported by the client.
func (sm *SessionManager) handleEvent(event SessionEvent) {
	switch event {
	case EventConnected:
		if err := sm.machine.Transition(StateOpen); err != nil {
			sm.logger.Warn("unexpected connected event", "state", sm.State().String())
		}

	case EventDisconnected:
		state := sm.State()
		if state == StateClosing || state == StateLoggedOut {
			return
		}
		if err := sm.machine.Transition(StateDisconnected); err != nil {
			return
		}

		sm.mu.Lock()
		ctx := sm.runCtx
		sm.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}

		go sm.reconnect(ctx)

	case EventLoggedOut:
		_ = sm.machine.Transition(StateLoggedOut)
		sm.reportFatal(shared.ErrLoggedOut)
	}
}

// reconnect retries the connection with bounded exponential backoff. Giving
// up is fatal; the operator has to intervene anyway.
func (sm *SessionManager) reconnect(ctx context.Context) {
	if err := sm.machine.Transition(StateConnecting); err != nil {
		return
	}

	err := sm.retrier.Do(ctx, func(ctx context.Context) error {
		if sm.State() == StateLoggedOut {
			return retry.Permanent(shared.ErrLoggedOut)
		}

		sm.logger.Info("reconnecting to whatsapp")
		if err := sm.client.Connect(ctx); err != nil {
			return retry.Retryable(err)
		}
		return nil
	})
	if err != nil {
		sm.logger.Error("reconnect attempts exhausted", "error", err)
		_ = sm.machine.Transition(StateDisconnected)
		sm.reportFatal(shared.WrapError("whatsapp", "Reconnect", shared.ErrConnectionLost,
			"reconnect attempts exhausted", err))
	}
}

// reportFatal delivers a fatal error once; later fatals are dropped.
func (sm *SessionManager) reportFatal(err error) {
	select {
	case sm.fatal <- err:
	default:
	}
}
