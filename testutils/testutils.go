package testutils

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FixedTime is a controllable clock for server-assigned timestamps.
type FixedTime struct {
	mu    sync.Mutex
	Fixed time.Time
}

func NewFixedTime(t time.Time) *FixedTime {
	return &FixedTime{Fixed: t.UTC()}
}

func (ft *FixedTime) Now() time.Time {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.Fixed
}

// Advance moves the clock forward by d.
func (ft *FixedTime) Advance(d time.Duration) {
	ft.mu.Lock()
	ft.Fixed = ft.Fixed.Add(d)
	ft.mu.Unlock()
}

var envOnce sync.Once

// SetupTestEnvironment sets the variables every test package expects.
func SetupTestEnvironment() {
	envOnce.Do(func() {
		os.Setenv("GO_ENV", "test")
		if os.Getenv("TEST_MONGO_URI") == "" {
			os.Setenv("TEST_MONGO_URI", "mongodb://localhost:27017")
		}
		if os.Getenv("TEST_REDIS_URL") == "" {
			os.Setenv("TEST_REDIS_URL", "redis://localhost:6379/1")
		}
	})
}

// SetupTestDB returns a collection in a throwaway database and a cleanup
// function. The test is skipped when MongoDB isn't reachable.
func SetupTestDB(t *testing.T) (*mongo.Collection, func()) {
	t.Helper()
	SetupTestEnvironment()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(os.Getenv("TEST_MONGO_URI")).
		SetServerSelectionTimeout(2 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("MongoDB not available: %v", err)
	}

	dbName := "tonotes_test_" + uuid.New().String()[:8]
	coll := client.Database(dbName).Collection("notes")

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := client.Database(dbName).Drop(ctx); err != nil {
			t.Logf("Warning: Failed to drop test database %s: %v", dbName, err)
		}
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("Warning: Failed to disconnect: %v", err)
		}
	}

	return coll, cleanup
}

// SetupTestRedis returns a client on a flushed test DB, skipping when Redis isn't reachable.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	SetupTestEnvironment()

	opts, err := redis.ParseURL(os.Getenv("TEST_REDIS_URL"))
	if err != nil {
		t.Fatalf("invalid TEST_REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test Redis DB: %v", err)
	}
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}
