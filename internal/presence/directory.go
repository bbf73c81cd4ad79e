package presence

import "sync"

// Listener is invoked once per net presence transition.
type Listener func(Transition)

// Directory is the derived online/offline view over the session
// registry. Connection handlers feed lifecycle events through Enter and
// Leave; readers query it; interested components subscribe to net
// transitions. The directory itself holds no state beyond its listeners,
// so a lost event never corrupts anything: every answer is recomputed
// from the registry.
type Directory struct {
	registry *Registry

	mu        sync.RWMutex
	listeners []Listener
}

// NewDirectory creates a directory over the given registry.
func NewDirectory(registry *Registry) *Directory {
	return &Directory{registry: registry}
}

// Enter records a connection announcing itself, optionally bound to a
// community. Re-entering with the same connection id rebinds it.
func (d *Directory) Enter(connectionID, userID, communityID string) error {
	transitions, err := d.registry.Join(connectionID, userID, communityID)
	if err != nil {
		return err
	}
	d.notify(transitions)
	return nil
}

// Leave records a connection going away and returns the removed binding,
// if there was one.
func (d *Directory) Leave(connectionID string) *Binding {
	removed, transitions := d.registry.Leave(connectionID)
	d.notify(transitions)
	return removed
}

// IsOnline reports whether the user has at least one live session anywhere.
func (d *Directory) IsOnline(userID string) bool {
	return d.registry.IsOnline(userID)
}

// OnlineInCommunity returns a snapshot of the distinct users currently
// online in the community.
func (d *Directory) OnlineInCommunity(communityID string) []string {
	return d.registry.OnlineInCommunity(communityID)
}

// OnPresenceChange registers a listener for net presence transitions.
// Listeners run on the goroutine that caused the transition and should
// hand off anything slow.
func (d *Directory) OnPresenceChange(listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, listener)
}

func (d *Directory) notify(transitions []Transition) {
	if len(transitions) == 0 {
		return
	}

	d.mu.RLock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	for _, transition := range transitions {
		for _, listener := range listeners {
			listener(transition)
		}
	}
}
