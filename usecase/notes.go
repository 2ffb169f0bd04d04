package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"tonotes/model"
	"tonotes/realtime"
	"tonotes/repository"
	"tonotes/utils"
)

// ErrStoreFailure marks errors from the durable store other than not-found.
var ErrStoreFailure = errors.New("note store failure")

// ListCache caches list results. Implementations must make Invalidate retire
// every entry written under an older generation.
type ListCache interface {
	Generation(ctx context.Context) (int64, error)
	GetList(ctx context.Context, generation int64, status *model.NoteStatus) ([]*model.Note, bool, error)
	SetList(ctx context.Context, generation int64, status *model.NoteStatus, notes []*model.Note) error
	Invalidate(ctx context.Context) error
}

// NotesService is the mutation coordinator: every state change is committed to
// the store first and only then announced to live channels.
//
// mu covers commit+broadcast and snapshot+register, so a channel opening while a
// note is being written sees that note either in its sync snapshot or as a later
// event, never both and never neither.
type NotesService struct {
	NotesRepo repository.NoteStore
	Hub       *realtime.Hub
	Cache     ListCache

	mu sync.Mutex
	// cacheStale is set when an invalidation failed after a commit. Reads skip
	// the cache until an invalidation succeeds. Written only with mu held.
	cacheStale atomic.Bool
}

func NewNotesService(store repository.NoteStore, hub *realtime.Hub) *NotesService {
	return &NotesService{NotesRepo: store, Hub: hub}
}

func storeFailure(op string, err error) error {
	if errors.Is(err, model.ErrNoteNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreFailure, op, err)
}

// committed runs after a successful store write, with mu held.
func (s *NotesService) committed(ctx context.Context, ev realtime.Event) {
	if s.Cache != nil {
		if err := s.invalidateCache(ctx); err != nil {
			utils.Error().Err(err).Str("action", string(ev.Action)).Msg("failed to invalidate notes cache, bypassing it until it recovers")
		}
	}
	s.Hub.Broadcast(ev)
}

// invalidateCache retires every cached list. Must be called with mu held.
func (s *NotesService) invalidateCache(ctx context.Context) error {
	// The write already happened; a cancelled request must not skip invalidation.
	if err := s.Cache.Invalidate(context.WithoutCancel(ctx)); err != nil {
		s.cacheStale.Store(true)
		return err
	}
	s.cacheStale.Store(false)
	return nil
}

// cacheUsable reports whether list reads may go through the cache, retrying a
// failed invalidation first.
func (s *NotesService) cacheUsable(ctx context.Context) bool {
	if s.Cache == nil {
		return false
	}
	if !s.cacheStale.Load() {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cacheStale.Load() {
		return true
	}
	if err := s.invalidateCache(ctx); err != nil {
		utils.Debug().Err(err).Msg("notes cache still stale, reading store")
		return false
	}
	utils.Info().Msg("notes cache invalidated after earlier failure")
	return true
}

func (s *NotesService) CreateNote(ctx context.Context, in model.NoteInput) (*model.Note, error) {
	fields, err := fieldsFromInput(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.NotesRepo.CreateNote(ctx, fields)
	if err != nil {
		return nil, storeFailure("create note", err)
	}
	s.committed(ctx, realtime.CreateEvent(note.Clone()))
	return note, nil
}

// ReplaceNote overwrites every mutable field of an existing note.
func (s *NotesService) ReplaceNote(ctx context.Context, id string, in model.NoteInput) (*model.Note, error) {
	fields, err := fieldsFromInput(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	note, err := s.NotesRepo.UpdateNote(ctx, id, fields)
	if err != nil {
		return nil, storeFailure("replace note", err)
	}
	s.committed(ctx, realtime.UpdateEvent(note.Clone()))
	return note, nil
}

// PatchNote applies only the fields present in p.
func (s *NotesService) PatchNote(ctx context.Context, id string, p model.NotePatch) (*model.Note, error) {
	checked, err := validatePatch(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.NotesRepo.GetNote(ctx, id)
	if err != nil {
		return nil, storeFailure("load note", err)
	}

	note, err := s.NotesRepo.UpdateNote(ctx, id, checked.merge(existing))
	if err != nil {
		return nil, storeFailure("patch note", err)
	}
	s.committed(ctx, realtime.UpdateEvent(note.Clone()))
	return note, nil
}

func (s *NotesService) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.NotesRepo.DeleteNote(ctx, id); err != nil {
		return storeFailure("delete note", err)
	}
	s.committed(ctx, realtime.DeleteEvent(id))
	return nil
}

// ListNotes returns notes by ascending priority, optionally for one status.
func (s *NotesService) ListNotes(ctx context.Context, status *model.NoteStatus) ([]*model.Note, error) {
	if status != nil && !status.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *status)}
	}
	if !s.cacheUsable(ctx) {
		return s.listFromStore(ctx, status)
	}

	gen, err := s.Cache.Generation(ctx)
	if err != nil {
		utils.Warn().Err(err).Msg("notes cache unavailable, reading store")
		return s.listFromStore(ctx, status)
	}
	notes, hit, err := s.Cache.GetList(ctx, gen, status)
	if err != nil {
		utils.Warn().Err(err).Msg("notes cache read failed")
	}
	if hit {
		return notes, nil
	}

	notes, err = s.listFromStore(ctx, status)
	if err != nil {
		return nil, err
	}
	if err := s.Cache.SetList(ctx, gen, status, notes); err != nil {
		utils.Warn().Err(err).Msg("notes cache write failed")
	}
	return notes, nil
}

func (s *NotesService) listFromStore(ctx context.Context, status *model.NoteStatus) ([]*model.Note, error) {
	notes, err := s.NotesRepo.ListNotes(ctx, status)
	if err != nil {
		return nil, storeFailure("list notes", err)
	}
	if notes == nil {
		notes = []*model.Note{}
	}
	return notes, nil
}

// OpenChannel queues the current note list as a sync event on ch and registers
// it for broadcasts in one step. Snapshots always come from the store, never the
// cache, so they can't lag behind an event the channel will not receive.
func (s *NotesService) OpenChannel(ctx context.Context, ch *realtime.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.listFromStore(ctx, nil)
	if err != nil {
		return err
	}
	if !s.Hub.Send(ch, realtime.SyncEvent(notes)) {
		return realtime.ErrChannelClosed
	}
	s.Hub.Registry().Register(ch)
	return nil
}

// Resync sends a fresh snapshot to a channel that asked for one.
func (s *NotesService) Resync(ctx context.Context, ch *realtime.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.listFromStore(ctx, nil)
	if err != nil {
		return err
	}
	if !s.Hub.Send(ch, realtime.SyncEvent(notes)) {
		return realtime.ErrChannelClosed
	}
	return nil
}

// CloseChannel removes ch from the registry. Safe to call for channels already removed.
func (s *NotesService) CloseChannel(ch *realtime.Channel) {
	s.Hub.Registry().Unregister(ch)
}
