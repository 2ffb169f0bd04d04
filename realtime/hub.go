package realtime

import (
	"errors"

	"tonotes/utils"
)

// Hub is the broadcast engine over a Registry.
type Hub struct {
	registry *Registry
}

func NewHub(registry *Registry) *Hub {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Hub{registry: registry}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// Broadcast hands ev to every registered channel and returns how many accepted it.
// It never blocks on a client and never fails: a channel that can't take the
// event is dropped from the registry and closed.
func (h *Hub) Broadcast(ev Event) int {
	channels := h.registry.Snapshot()
	if len(channels) == 0 {
		return 0
	}
	EventsBroadcastTotal.WithLabelValues(string(ev.Action)).Inc()

	delivered := 0
	for _, ch := range channels {
		if h.Send(ch, ev) {
			delivered++
		}
	}
	return delivered
}

// Send delivers ev to a single channel, dropping the channel on failure.
func (h *Hub) Send(ch *Channel, ev Event) bool {
	if err := ch.Deliver(ev); err != nil {
		h.drop(ch, ev, err)
		return false
	}
	return true
}

func (h *Hub) drop(ch *Channel, ev Event, err error) {
	removed := h.registry.Unregister(ch)
	ch.Close()

	reason := "closed"
	if errors.Is(err, ErrChannelBacklogged) {
		reason = "backlogged"
	}
	DeliveryFailuresTotal.WithLabelValues(reason).Inc()

	if removed {
		utils.Warn().
			Err(err).
			Uint64("channel", ch.ID()).
			Str("client", ch.Client()).
			Str("action", string(ev.Action)).
			Int("total_channels", h.registry.Len()).
			Msg("dropped websocket channel after failed delivery")
	}
}

// CloseAll unregisters and closes every channel. Used at shutdown.
func (h *Hub) CloseAll() int {
	channels := h.registry.Snapshot()
	for _, ch := range channels {
		h.registry.Unregister(ch)
		ch.Close()
	}
	if len(channels) > 0 {
		utils.Info().Int("channels_closed", len(channels)).Msg("closed all websocket channels")
	}
	return len(channels)
}
