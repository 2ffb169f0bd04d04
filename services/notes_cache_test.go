package services

import (
	"context"
	"testing"
	"time"

	"tonotes/model"
	"tonotes/testutils"
)

func TestNotesCache(t *testing.T) {
	client := testutils.SetupTestRedis(t)
	cache := NewNotesCacheWithClient(client, time.Minute)
	ctx := context.Background()

	notes := []*model.Note{
		{ID: "a", Title: "first", Priority: 1, Status: model.StatusActive},
		{ID: "b", Title: "second", Priority: 2, Status: model.StatusHold},
	}

	gen, err := cache.Generation(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if gen != 0 {
		t.Fatalf("expected generation 0 on a fresh DB, got %d", gen)
	}

	t.Run("MissBeforeSet", func(t *testing.T) {
		_, hit, err := cache.GetList(ctx, gen, nil)
		if err != nil {
			t.Fatal(err)
		}
		if hit {
			t.Error("expected cache miss")
		}
	})

	t.Run("HitAfterSet", func(t *testing.T) {
		if err := cache.SetList(ctx, gen, nil, notes); err != nil {
			t.Fatal(err)
		}
		got, hit, err := cache.GetList(ctx, gen, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !hit || len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
			t.Errorf("unexpected cached list: hit=%v %+v", hit, got)
		}
	})

	t.Run("StatusKeysAreSeparate", func(t *testing.T) {
		hold := model.StatusHold
		if _, hit, _ := cache.GetList(ctx, gen, &hold); hit {
			t.Error("status-filtered list should not share the unfiltered key")
		}
	})

	t.Run("InvalidateRetiresGeneration", func(t *testing.T) {
		if err := cache.Invalidate(ctx); err != nil {
			t.Fatal(err)
		}
		next, err := cache.Generation(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if next != gen+1 {
			t.Fatalf("expected generation %d, got %d", gen+1, next)
		}
		if _, hit, _ := cache.GetList(ctx, next, nil); hit {
			t.Error("expected miss after invalidation")
		}
	})
}
