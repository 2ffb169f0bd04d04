package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tonotes/dto"
	"tonotes/realtime"
	"tonotes/testutils"

	"github.com/gin-gonic/gin"
)

func TestHealthHandler(t *testing.T) {
	hub := realtime.NewHub(nil)
	ch := realtime.NewChannel(testutils.NewFakeConn(), "test", 4)
	hub.Registry().Register(ch)
	defer ch.Close()

	tests := []struct {
		name         string
		ping         func(context.Context) error
		expectedCode int
		wantMongo    bool
	}{
		{"memory store", nil, http.StatusOK, false},
		{"mongo reachable", func(context.Context) error { return nil }, http.StatusOK, true},
		{"mongo down", func(context.Context) error { return errors.New("timeout") }, http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(hub, "test")
			h.Ping = tt.ping
			router := gin.New()
			router.GET("/health", h.GetHealth)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			if w.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d", tt.expectedCode, w.Code)
			}
			if tt.expectedCode != http.StatusOK {
				return
			}

			var resp dto.HealthResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != "ok" || resp.Channels != 1 || resp.Store != "test" {
				t.Errorf("unexpected health %+v", resp)
			}
			if resp.System.Goroutines <= 0 {
				t.Error("expected goroutine count")
			}
			if (resp.Mongo != nil) != tt.wantMongo {
				t.Errorf("mongo metrics presence: want %v, got %+v", tt.wantMongo, resp.Mongo)
			}
		})
	}
}
