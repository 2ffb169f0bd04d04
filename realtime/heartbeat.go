package realtime

import (
	"context"
	"time"

	"tonotes/utils"
)

const DefaultHeartbeatInterval = time.Second

// Heartbeat periodically broadcasts a tick while any channel is registered.
type Heartbeat struct {
	hub      *Hub
	interval time.Duration
	Now      func() time.Time
}

func NewHeartbeat(hub *Hub, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Heartbeat{hub: hub, interval: interval, Now: time.Now}
}

// Run ticks until ctx is cancelled. Cancellation is the normal way to stop and
// is not reported as an error.
func (hb *Heartbeat) Run(ctx context.Context) {
	ticker := time.NewTicker(hb.interval)
	defer ticker.Stop()

	utils.Info().Dur("interval", hb.interval).Msg("heartbeat started")
	for {
		select {
		case <-ctx.Done():
			utils.Info().Msg("heartbeat stopped")
			return
		case <-ticker.C:
			if hb.hub.Registry().Len() == 0 {
				continue
			}
			hb.hub.Broadcast(TickEvent(hb.Now()))
		}
	}
}
