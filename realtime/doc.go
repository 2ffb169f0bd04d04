// Package realtime keeps live WebSocket viewers consistent with note mutations.
//
// A Registry tracks open Channels. The Hub delivers Events to every registered
// Channel by enqueueing onto each channel's bounded outbound queue; a per-channel
// writer goroutine drains the queue, so socket writes to different clients run
// concurrently and a slow or dead client never stalls the caller. A channel whose
// queue is full or already closed is unregistered and closed.
//
// Events handed to the Hub one after another by the same caller reach each
// channel in that order. There is no ordering across channels.
//
// Heartbeat emits a tick Event at a fixed interval while any channel is open.
package realtime
