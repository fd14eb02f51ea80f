package console

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// GateState is the credential state of one cluster
type GateState int

const (
	StateUnknown GateState = iota
	StateUncached
	StatePromptOpen
	StateSubmitting
	StateCached
)

func (s GateState) String() string {
	switch s {
	case StateUncached:
		return "uncached"
	case StatePromptOpen:
		return "prompt-open"
	case StateSubmitting:
		return "submitting"
	case StateCached:
		return "cached"
	default:
		return "unknown"
	}
}

const (
	msgPasswordRequired = "Password required"
	msgConnectFailed    = "Connection failed"
)

// Gate tracks whether a usable bind credential is cached for one cluster.
// Once Cached it never goes back.
type Gate struct {
	cluster string
	remote  Remote
	logger  *logrus.Logger

	mu        sync.Mutex
	state     GateState
	promptErr string
}

// NewGate creates a gate in the Unknown state
func NewGate(cluster string, remote Remote, logger *logrus.Logger) *Gate {
	return &Gate{
		cluster: cluster,
		remote:  remote,
		logger:  logger,
	}
}

// State returns the current state
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Cached reports whether entry is permitted
func (g *Gate) Cached() bool {
	return g.State() == StateCached
}

// PromptError is the message shown in the open prompt, empty when there is none
func (g *Gate) PromptError() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.promptErr
}

// Resolve applies the result of the load-time cache check. It only acts on an Unknown gate.
func (g *Gate) Resolve(cached bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateUnknown {
		return
	}
	if cached {
		g.state = StateCached
	} else {
		g.state = StateUncached
	}
}

// RequestEntry returns nil when the cluster may be entered. Otherwise it opens the
// prompt and returns ErrCredentialRequired.
func (g *Gate) RequestEntry() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case StateCached:
		return nil
	case StateUnknown, StateUncached:
		g.state = StatePromptOpen
		g.promptErr = ""
	}
	return ErrCredentialRequired
}

// ClosePrompt dismisses an open prompt without submitting
func (g *Gate) ClosePrompt() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StatePromptOpen {
		g.state = StateUncached
		g.promptErr = ""
	}
}

// Submit sends the credential to the backend. An empty credential is rejected locally.
// On failure the prompt stays open with the server's reason.
func (g *Gate) Submit(ctx context.Context, credential string) error {
	g.mu.Lock()
	switch g.state {
	case StateCached:
		g.mu.Unlock()
		return nil
	case StateSubmitting:
		g.mu.Unlock()
		return ErrSubmissionInFlight
	}

	if credential == "" {
		g.state = StatePromptOpen
		g.promptErr = msgPasswordRequired
		g.mu.Unlock()
		return &ValidationError{Message: msgPasswordRequired}
	}

	g.state = StateSubmitting
	g.promptErr = ""
	g.mu.Unlock()

	_, err := g.remote.Connect(ctx, g.cluster, credential)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		g.state = StatePromptOpen
		g.promptErr = detailOf(err, msgConnectFailed)
		g.logger.WithError(err).WithField("cluster", g.cluster).Warn("Credential submission failed")
		return err
	}

	g.state = StateCached
	g.logger.WithField("cluster", g.cluster).Info("Credential cached")
	return nil
}
