package handler

import (
	"net/http"
	"time"

	"tonotes/middleware"
	"tonotes/realtime"
	"tonotes/usecase"
	"tonotes/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	notesService *usecase.NotesService
	upgrader     websocket.Upgrader
	sendBuffer   int
}

func NewWebSocketHandler(notesService *usecase.NotesService, allowedOrigins []string, sendBuffer int) *WebSocketHandler {
	return &WebSocketHandler{
		notesService: notesService,
		sendBuffer:   sendBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin.
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
	}
}

// Serve upgrades the request and runs the live channel until the client leaves.
func (h *WebSocketHandler) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		utils.Warn().
			Err(err).
			Str("origin", c.GetHeader("Origin")).
			Str("remote_addr", c.ClientIP()).
			Msg("websocket upgrade failed")
		return
	}

	ctx := c.Request.Context()
	ch := realtime.NewChannel(conn, utils.DescribeClient(c.Request.UserAgent()), h.sendBuffer)

	if err := h.notesService.OpenChannel(ctx, ch); err != nil {
		utils.Error().Err(err).Uint64("channel", ch.ID()).Msg("failed to open websocket channel")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "sync failed"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	connectedAt := time.Now()
	registry := h.notesService.Hub.Registry()
	utils.Info().
		Uint64("channel", ch.ID()).
		Str("client", ch.Client()).
		Str("remote_addr", c.ClientIP()).
		Int("total_channels", registry.Len()).
		Msg("websocket channel connected")

	ch.Serve(func(msg realtime.ClientMessage) {
		if msg.Action != realtime.ActionSync {
			return
		}
		if err := h.notesService.Resync(ctx, ch); err != nil {
			utils.Warn().Err(err).Uint64("channel", ch.ID()).Msg("resync failed")
		}
	}, func() {
		h.notesService.CloseChannel(ch)
	})

	utils.Info().
		Uint64("channel", ch.ID()).
		Str("client", ch.Client()).
		Dur("duration", time.Since(connectedAt)).
		Int("total_channels", registry.Len()).
		Msg("websocket channel disconnected")
}
