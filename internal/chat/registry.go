package chat

import (
	"sort"
	"sync"

	"github.com/hongjun500/linechat/internal/observe"
)

type registration struct {
	peer *Peer
	name string
}

// Member is an identity and its current display name.
type Member struct {
	ID   string
	Name string
}

// Registry maps client identity to display name and peer. It is the single
// source of truth for who is connected: an entry exists exactly while its
// peer is open.
//
// Broadcasts iterate under the read lock, so a mutation lands entirely
// before or after a broadcast pass.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registration
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registration)}
}

// Register binds p.ID to name, overwriting any existing entry. It returns
// the peer that previously held the identity, if any, so the caller can
// report the collision.
func (r *Registry) Register(p *Peer, name string) (previous *Peer) {
	r.mu.Lock()
	old, exists := r.entries[p.ID]
	r.entries[p.ID] = &registration{peer: p, name: name}
	r.mu.Unlock()

	if !exists {
		observe.AddOnline(1)
		return nil
	}
	if old.peer == p {
		return nil
	}
	return old.peer
}

// Rename changes the display name of id. It is a no-op when id is absent.
func (r *Registry) Rename(id, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.name = name
	return true
}

// Lookup returns the current display name of id.
func (r *Registry) Lookup(id string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return "", ErrNotFound
	}
	return e.name, nil
}

// Unregister removes id and closes its peer. Removing an absent identity is
// not an error.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	observe.AddOnline(-1)
	_ = e.peer.Close()
	return true
}

// Snapshot returns the peers registered at the time of the call.
func (r *Registry) Snapshot() []*Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Peer, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.peer)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Members lists identities and names ordered by identity.
func (r *Registry) Members() []Member {
	r.mu.RLock()
	out := make([]Member, 0, len(r.entries))
	for id, e := range r.entries {
		out = append(out, Member{ID: id, Name: e.name})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// The peer-scoped variants below only touch an entry that still belongs to
// p. A connection displaced by an identity collision can neither rename nor
// remove the connection that replaced it.

func (r *Registry) renamePeer(p *Peer, name string) (old string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, found := r.entries[p.ID]
	if !found || e.peer != p {
		return "", false
	}
	old, e.name = e.name, name
	return old, true
}

func (r *Registry) nameOf(p *Peer) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[p.ID]
	if !ok || e.peer != p {
		return "", ErrNotFound
	}
	return e.name, nil
}

// release removes p's entry when it still owns it, then closes p. Both the
// connection handler and the broadcaster end up here, so it must be safe to
// call any number of times.
func (r *Registry) release(p *Peer) (name string, removed bool) {
	r.mu.Lock()
	if e, ok := r.entries[p.ID]; ok && e.peer == p {
		delete(r.entries, p.ID)
		name, removed = e.name, true
	}
	r.mu.Unlock()
	if removed {
		observe.AddOnline(-1)
	}
	_ = p.Close()
	return name, removed
}

// each calls fn for every registered peer while holding the read lock.
// fn must not call back into the registry's mutating methods.
func (r *Registry) each(fn func(*Peer)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		fn(e.peer)
	}
}
