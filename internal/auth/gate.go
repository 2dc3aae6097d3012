package auth

import (
	"sync"

	"kasetinfo/internal/session"
)

// State is the login state the admin view is gated on.
type State int

const (
	SignedOut State = iota
	Checking
	SignedIn
)

func (s State) String() string {
	switch s {
	case SignedOut:
		return "signed_out"
	case Checking:
		return "checking"
	case SignedIn:
		return "signed_in"
	}
	return "unknown"
}

// Gate tracks the login state of one client.
//
//	SignedOut --Begin--> Checking --Resolve(session)--> SignedIn
//	                              --Resolve(nil)------> SignedOut
//	any --EventSignedIn--> SignedIn, any --EventSignedOut--> SignedOut
type Gate struct {
	mu      sync.RWMutex
	state   State
	session *session.Data
}

// NewGate returns a gate in the SignedOut state.
func NewGate() *Gate {
	return &Gate{state: SignedOut}
}

// Begin marks the session lookup as in progress.
func (g *Gate) Begin() {
	g.mu.Lock()
	g.state = Checking
	g.mu.Unlock()
}

// Resolve completes a lookup with its result.
func (g *Gate) Resolve(data *session.Data) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = data
	if data != nil {
		g.state = SignedIn
	} else {
		g.state = SignedOut
	}
}

// Handle applies a session event.
func (g *Gate) Handle(e Event) {
	switch e.Kind {
	case EventSignedIn:
		g.Resolve(e.Session)
	case EventSignedOut:
		g.Resolve(nil)
	}
}

// Subscriber delivers session events. Service satisfies it.
type Subscriber interface {
	Subscribe(fn func(Event)) (unsubscribe func())
}

// Watch subscribes the gate to s and returns the unsubscribe function.
// A non-empty token restricts the gate to events for that session.
func (g *Gate) Watch(s Subscriber, token string) func() {
	return s.Subscribe(func(e Event) {
		if token != "" && e.Token != token {
			return
		}
		g.Handle(e)
	})
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Session returns the resolved session, nil unless SignedIn.
func (g *Gate) Session() *session.Data {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state != SignedIn {
		return nil
	}
	return g.session
}
