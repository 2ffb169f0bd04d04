package repository

import (
	"context"
	"time"

	"tonotes/model"
)

// NoteStore is the durable CRUD contract. Lookups of unknown ids return
// model.ErrNoteNotFound; ListNotes orders by priority ascending.
type NoteStore interface {
	CreateNote(ctx context.Context, fields model.NoteFields) (*model.Note, error)
	GetNote(ctx context.Context, id string) (*model.Note, error)
	ListNotes(ctx context.Context, status *model.NoteStatus) ([]*model.Note, error)
	UpdateNote(ctx context.Context, id string, fields model.NoteFields) (*model.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// Clock lets tests pin server-assigned timestamps.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// updatePrecision is the smallest step updated_at moves by. BSON dates keep
// milliseconds, so both stores use it.
const updatePrecision = time.Millisecond

// nextUpdatedAt returns now, or prev plus one step when the clock hasn't moved
// past prev, so every update strictly advances updated_at.
func nextUpdatedAt(now, prev time.Time) time.Time {
	if floor := prev.Add(updatePrecision); now.Before(floor) {
		return floor
	}
	return now
}
