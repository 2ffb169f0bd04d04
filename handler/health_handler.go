package handler

import (
	"context"
	"runtime"
	"time"

	"tonotes/dto"
	"tonotes/realtime"
	"tonotes/utils"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	hub   *realtime.Hub
	store string

	// Ping checks the durable store; nil when the store is in-process.
	Ping func(ctx context.Context) error
}

func NewHealthHandler(hub *realtime.Hub, store string) *HealthHandler {
	return &HealthHandler{hub: hub, store: store}
}

func (h *HealthHandler) GetHealth(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:   "ok",
		Time:     time.Now().UTC(),
		Store:    h.store,
		Channels: h.hub.Registry().Len(),
		System: dto.SystemStats{
			CPUPercent:    utils.GetCPUUsage(),
			MemoryPercent: utils.GetMemoryUsage(),
			Goroutines:    runtime.NumGoroutine(),
		},
	}

	if h.Ping != nil {
		metrics := utils.GetMongoMetrics()
		resp.Mongo = &metrics

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			utils.Warn().Err(err).Str("store", h.store).Msg("health check: store unreachable")
			resp.Status = "degraded"
			utils.ServiceUnavailable(c, "Store unreachable", resp)
			return
		}
	}

	utils.Success(c, resp)
}
