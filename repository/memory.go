package repository

import (
	"context"
	"sort"
	"sync"

	"tonotes/model"

	"github.com/google/uuid"
)

// MemoryRepo keeps notes in process memory. Used by tests and NOTES_STORE=memory.
type MemoryRepo struct {
	mu    sync.RWMutex
	notes map[string]*model.Note
	Now   Clock
}

var _ NoteStore = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{notes: make(map[string]*model.Note)}
}

func (r *MemoryRepo) now() Clock {
	if r.Now == nil {
		return systemClock
	}
	return r.Now
}

func (r *MemoryRepo) CreateNote(ctx context.Context, fields model.NoteFields) (*model.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := r.now()()
	note := &model.Note{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	fields.Apply(note)

	r.mu.Lock()
	r.notes[note.ID] = note.Clone()
	r.mu.Unlock()
	return note, nil
}

func (r *MemoryRepo) GetNote(ctx context.Context, id string) (*model.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	note, ok := r.notes[id]
	if !ok {
		return nil, model.ErrNoteNotFound
	}
	return note.Clone(), nil
}

func (r *MemoryRepo) ListNotes(ctx context.Context, status *model.NoteStatus) ([]*model.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	notes := make([]*model.Note, 0, len(r.notes))
	for _, n := range r.notes {
		if status != nil && n.Status != *status {
			continue
		}
		notes = append(notes, n.Clone())
	}
	r.mu.RUnlock()

	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Priority != notes[j].Priority {
			return notes[i].Priority < notes[j].Priority
		}
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.Before(notes[j].CreatedAt)
		}
		return notes[i].ID < notes[j].ID
	})
	return notes, nil
}

func (r *MemoryRepo) UpdateNote(ctx context.Context, id string, fields model.NoteFields) (*model.Note, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.notes[id]
	if !ok {
		return nil, model.ErrNoteNotFound
	}
	note := existing.Clone()
	fields.Apply(note)
	note.UpdatedAt = nextUpdatedAt(r.now()(), existing.UpdatedAt)
	r.notes[id] = note.Clone()
	return note, nil
}

func (r *MemoryRepo) DeleteNote(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[id]; !ok {
		return model.ErrNoteNotFound
	}
	delete(r.notes, id)
	return nil
}
