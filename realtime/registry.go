package realtime

import (
	"sort"
	"sync"
)

// Registry is the set of open channels. It holds non-owning references;
// closing a channel is the Hub's job.
type Registry struct {
	mu       sync.RWMutex
	channels map[*Channel]struct{}
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[*Channel]struct{})}
}

// Register adds ch. Registering the same channel twice is a caller error and is not detected.
func (r *Registry) Register(ch *Channel) {
	r.mu.Lock()
	r.channels[ch] = struct{}{}
	n := len(r.channels)
	r.mu.Unlock()
	ConnectedChannels.Set(float64(n))
}

// Unregister removes ch and reports whether it was present. Removing an
// absent channel is a no-op, so racing disconnect paths can both call it.
func (r *Registry) Unregister(ch *Channel) bool {
	r.mu.Lock()
	_, ok := r.channels[ch]
	delete(r.channels, ch)
	n := len(r.channels)
	r.mu.Unlock()
	if ok {
		ConnectedChannels.Set(float64(n))
	}
	return ok
}

// Snapshot returns the channels registered at the time of the call, ordered by id.
// Channels may close or register right after it returns.
func (r *Registry) Snapshot() []*Channel {
	r.mu.RLock()
	channels := make([]*Channel, 0, len(r.channels))
	for ch := range r.channels {
		channels = append(channels, ch)
	}
	r.mu.RUnlock()

	sort.Slice(channels, func(i, j int) bool {
		return channels[i].id < channels[j].id
	})
	return channels
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
