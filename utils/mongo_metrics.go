package utils

import (
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/event"
)

type MongoMetrics struct {
	ActiveConnections  int64     `json:"active_connections"`
	CreatedConnections int64     `json:"created_connections"`
	ClosedConnections  int64     `json:"closed_connections"`
	LastCheckTime      time.Time `json:"last_check_time"`
}

var (
	activeConnections  atomic.Int64
	createdConnections atomic.Int64
	closedConnections  atomic.Int64
)

// MongoPoolMonitor feeds the connection counters from driver pool events.
func MongoPoolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(evt *event.PoolEvent) {
			switch evt.Type {
			case event.ConnectionCreated:
				createdConnections.Add(1)
			case event.ConnectionClosed:
				closedConnections.Add(1)
			case event.GetSucceeded:
				activeConnections.Add(1)
			case event.ConnectionReturned:
				activeConnections.Add(-1)
			}
		},
	}
}

func GetMongoMetrics() MongoMetrics {
	return MongoMetrics{
		ActiveConnections:  activeConnections.Load(),
		CreatedConnections: createdConnections.Load(),
		ClosedConnections:  closedConnections.Load(),
		LastCheckTime:      time.Now(),
	}
}
