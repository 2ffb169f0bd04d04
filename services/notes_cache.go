package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tonotes/model"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const (
	generationKey = "notes:gen"
	allStatuses   = "all"
)

// NotesCache is a cache-aside store for list results. Every invalidation bumps a
// generation counter that is part of the key, so a slow reader can never
// repopulate a key that a newer write already superseded.
type NotesCache struct {
	client *redis.Client
	ttl    time.Duration
}

type NotesCacheEntry struct {
	Notes      []*model.Note `json:"notes"`
	Generation int64         `json:"generation"`
	CachedAt   time.Time     `json:"cached_at"`
}

// NewNotesCache creates and initializes a new notes cache
func NewNotesCache(redisURL string, ttl time.Duration) (*NotesCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewNotesCacheWithClient(client, ttl), nil
}

func NewNotesCacheWithClient(client *redis.Client, ttl time.Duration) *NotesCache {
	return &NotesCache{client: client, ttl: ttl}
}

func listKey(generation int64, status *model.NoteStatus) string {
	s := allStatuses
	if status != nil {
		s = string(*status)
	}
	return fmt.Sprintf("notes:list:%d:%s", generation, s)
}

// Generation returns the current cache generation, 0 when never invalidated.
func (nc *NotesCache) Generation(ctx context.Context) (int64, error) {
	gen, err := nc.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// GetList returns the cached list for generation, hit=false on cache miss.
func (nc *NotesCache) GetList(ctx context.Context, generation int64, status *model.NoteStatus) ([]*model.Note, bool, error) {
	data, err := nc.client.Get(ctx, listKey(generation, status)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get notes from cache: %w", err)
	}

	var entry NotesCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal notes: %w", err)
	}
	if entry.Notes == nil {
		entry.Notes = []*model.Note{}
	}
	return entry.Notes, true, nil
}

// SetList stores a list result under generation.
func (nc *NotesCache) SetList(ctx context.Context, generation int64, status *model.NoteStatus, notes []*model.Note) error {
	data, err := json.Marshal(NotesCacheEntry{
		Notes:      notes,
		Generation: generation,
		CachedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notes: %w", err)
	}

	if err := nc.client.Set(ctx, listKey(generation, status), data, nc.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache notes: %w", err)
	}
	return nil
}

// Invalidate retires every cached list by moving to the next generation.
func (nc *NotesCache) Invalidate(ctx context.Context) error {
	if err := nc.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate notes cache: %w", err)
	}
	return nil
}

func (nc *NotesCache) Close() error {
	return nc.client.Close()
}
