package dto

import (
	"time"

	"tonotes/utils"
)

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Goroutines    int     `json:"goroutines"`
}

type HealthResponse struct {
	Status   string              `json:"status"`
	Time     time.Time           `json:"time"`
	Store    string              `json:"store"`
	Channels int                 `json:"channels"`
	System   SystemStats         `json:"system"`
	Mongo    *utils.MongoMetrics `json:"mongo,omitempty"`
}
