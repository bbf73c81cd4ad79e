package presence

import (
	"errors"
	"sync"
	"time"
)

// ErrInvalidBinding is returned when a join carries no user identity.
var ErrInvalidBinding = errors.New("presence: binding requires a user id")

// Binding ties one live connection to a user and, optionally, a community.
type Binding struct {
	ConnectionID string
	UserID       string
	CommunityID  string // empty when the session is only globally scoped
	JoinedAt     time.Time
}

// Transition is a net presence change for a (user, scope) pair.
// CommunityID is empty for the global scope. A transition is only
// produced for the first join and the last leave of a scope: extra
// sessions of the same user in the same scope do not re-trigger it.
type Transition struct {
	UserID      string
	CommunityID string
	Online      bool
}

type scopeKey struct {
	userID      string
	communityID string
}

// Registry tracks which connection is bound to which user and community.
// All methods are safe for concurrent use. Transitions are computed in
// the same critical section as the mutation that caused them, so a
// binding can never be observed half-written and transition order
// matches mutation order.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]Binding
	userConns map[string]map[string]struct{}
	refs      map[scopeKey]int
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[string]Binding),
		userConns: make(map[string]map[string]struct{}),
		refs:      make(map[scopeKey]int),
	}
}

// Join binds a connection to a user and optional community. Re-joining
// with a known connection id replaces the previous binding.
func (r *Registry) Join(connectionID, userID, communityID string) ([]Transition, error) {
	if connectionID == "" || userID == "" {
		return nil, ErrInvalidBinding
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var transitions []Transition
	if prev, ok := r.sessions[connectionID]; ok {
		transitions = append(transitions, r.release(prev)...)
	}

	binding := Binding{
		ConnectionID: connectionID,
		UserID:       userID,
		CommunityID:  communityID,
		JoinedAt:     time.Now(),
	}
	r.sessions[connectionID] = binding
	transitions = append(transitions, r.acquire(binding)...)

	return coalesce(transitions), nil
}

// Leave removes the binding for a connection and returns it. Unknown
// connection ids are a no-op, so duplicate or late disconnect signals
// are harmless.
func (r *Registry) Leave(connectionID string) (*Binding, []Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	binding, ok := r.sessions[connectionID]
	if !ok {
		return nil, nil
	}
	delete(r.sessions, connectionID)
	return &binding, r.release(binding)
}

// BindingOf returns the current binding for a connection, if any.
func (r *Registry) BindingOf(connectionID string) (*Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	binding, ok := r.sessions[connectionID]
	if !ok {
		return nil, false
	}
	return &binding, true
}

// SessionsOf returns every live binding for a user.
func (r *Registry) SessionsOf(userID string) []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.userConns[userID]
	if len(conns) == 0 {
		return nil
	}
	bindings := make([]Binding, 0, len(conns))
	for connID := range conns {
		bindings = append(bindings, r.sessions[connID])
	}
	return bindings
}

// SessionsInScope returns every live binding in a scope. An empty
// community id means the global scope, i.e. all sessions.
func (r *Registry) SessionsInScope(communityID string) []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bindings := make([]Binding, 0, len(r.sessions))
	for _, binding := range r.sessions {
		if communityID == "" || binding.CommunityID == communityID {
			bindings = append(bindings, binding)
		}
	}
	return bindings
}

// IsOnline reports whether the user has at least one live session.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refs[scopeKey{userID: userID}] > 0
}

// OnlineInCommunity returns the distinct users with at least one live
// session bound to the community.
func (r *Registry) OnlineInCommunity(communityID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []string
	for key, count := range r.refs {
		if key.communityID == communityID && key.communityID != "" && count > 0 {
			users = append(users, key.userID)
		}
	}
	return users
}

// acquire bumps the refcounts for the binding's scopes and reports the
// 0→1 transitions. Caller must hold the write lock.
func (r *Registry) acquire(binding Binding) []Transition {
	conns := r.userConns[binding.UserID]
	if conns == nil {
		conns = make(map[string]struct{})
		r.userConns[binding.UserID] = conns
	}
	conns[binding.ConnectionID] = struct{}{}

	var transitions []Transition
	for _, key := range scopesOf(binding) {
		r.refs[key]++
		if r.refs[key] == 1 {
			transitions = append(transitions, Transition{
				UserID:      key.userID,
				CommunityID: key.communityID,
				Online:      true,
			})
		}
	}
	return transitions
}

// release drops the refcounts for the binding's scopes and reports the
// 1→0 transitions. Caller must hold the write lock.
func (r *Registry) release(binding Binding) []Transition {
	if conns := r.userConns[binding.UserID]; conns != nil {
		delete(conns, binding.ConnectionID)
		if len(conns) == 0 {
			delete(r.userConns, binding.UserID)
		}
	}

	var transitions []Transition
	for _, key := range scopesOf(binding) {
		r.refs[key]--
		if r.refs[key] <= 0 {
			delete(r.refs, key)
			transitions = append(transitions, Transition{
				UserID:      key.userID,
				CommunityID: key.communityID,
				Online:      false,
			})
		}
	}
	return transitions
}

func scopesOf(binding Binding) []scopeKey {
	keys := []scopeKey{{userID: binding.UserID}}
	if binding.CommunityID != "" {
		keys = append(keys, scopeKey{userID: binding.UserID, communityID: binding.CommunityID})
	}
	return keys
}

// coalesce cancels out offline/online pairs for the same scope that a
// replacing join produces, so rebinding the same connection does not
// flap presence.
func coalesce(transitions []Transition) []Transition {
	if len(transitions) < 2 {
		return transitions
	}

	net := make(map[scopeKey]int, len(transitions))
	for _, t := range transitions {
		key := scopeKey{userID: t.UserID, communityID: t.CommunityID}
		if t.Online {
			net[key]++
		} else {
			net[key]--
		}
	}

	out := transitions[:0]
	for _, t := range transitions {
		key := scopeKey{userID: t.UserID, communityID: t.CommunityID}
		if net[key] == 0 {
			continue
		}
		net[key] = 0
		out = append(out, t)
	}
	return out
}
