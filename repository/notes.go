package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tonotes/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotesRepo struct {
	MongoCollection *mongo.Collection
	Now             Clock
}

var _ NoteStore = (*NotesRepo)(nil)

func GetNotesRepo(client *mongo.Client, database, collection string) *NotesRepo {
	return &NotesRepo{
		MongoCollection: client.Database(database).Collection(collection),
	}
}

// now truncates to milliseconds, the precision BSON dates keep.
func (r *NotesRepo) now() time.Time {
	clock := r.Now
	if clock == nil {
		clock = systemClock
	}
	return clock().UTC().Truncate(time.Millisecond)
}

// CreateNote inserts a new note with a fresh id and timestamps
func (r *NotesRepo) CreateNote(ctx context.Context, fields model.NoteFields) (*model.Note, error) {
	now := r.now()
	note := &model.Note{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	fields.Apply(note)
	if note.ReminderTime != nil {
		t := note.ReminderTime.UTC().Truncate(time.Millisecond)
		note.ReminderTime = &t
	}

	if _, err := r.MongoCollection.InsertOne(ctx, note); err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

// GetNote retrieves a specific note
func (r *NotesRepo) GetNote(ctx context.Context, id string) (*model.Note, error) {
	var note model.Note
	err := r.MongoCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&note)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNoteNotFound
		}
		return nil, fmt.Errorf("find note: %w", err)
	}
	normalizeTimes(&note)
	return &note, nil
}

// ListNotes returns notes ordered by priority, optionally restricted to one status
func (r *NotesRepo) ListNotes(ctx context.Context, status *model.NoteStatus) ([]*model.Note, error) {
	filter := bson.M{}
	if status != nil {
		filter["status"] = *status
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "priority", Value: 1},
		{Key: "created_at", Value: 1},
	})

	cursor, err := r.MongoCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find notes: %w", err)
	}
	defer cursor.Close(ctx)

	notes := make([]*model.Note, 0)
	if err = cursor.All(ctx, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	for _, n := range notes {
		normalizeTimes(n)
	}
	return notes, nil
}

// UpdateNote overwrites every mutable field and advances updated_at. It runs as
// a pipeline update so updated_at moves past the stored value even when two
// updates land in the same millisecond.
func (r *NotesRepo) UpdateNote(ctx context.Context, id string, fields model.NoteFields) (*model.Note, error) {
	// Client text goes through $literal so values starting with "$" aren't read as field paths.
	set := bson.M{
		"title":    bson.M{"$literal": fields.Title},
		"content":  bson.M{"$literal": fields.Content},
		"priority": bson.M{"$literal": fields.Priority},
		"status":   bson.M{"$literal": fields.Status},
		"updated_at": bson.M{"$max": bson.A{
			r.now(),
			bson.M{"$add": bson.A{"$updated_at", updatePrecision.Milliseconds()}},
		}},
		"reminder_time": "$$REMOVE",
	}
	if fields.ReminderTime != nil {
		set["reminder_time"] = fields.ReminderTime.UTC().Truncate(time.Millisecond)
	}
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var note model.Note
	err := r.MongoCollection.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&note)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrNoteNotFound
		}
		return nil, fmt.Errorf("update note: %w", err)
	}
	normalizeTimes(&note)
	return &note, nil
}

// DeleteNote deletes a specific note
func (r *NotesRepo) DeleteNote(ctx context.Context, id string) error {
	result, err := r.MongoCollection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if result.DeletedCount == 0 {
		return model.ErrNoteNotFound
	}
	return nil
}

// CountNotes counts stored notes
func (r *NotesRepo) CountNotes(ctx context.Context) (int, error) {
	count, err := r.MongoCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// normalizeTimes decodes BSON dates as UTC so responses don't depend on server locale.
func normalizeTimes(n *model.Note) {
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	if n.ReminderTime != nil {
		t := n.ReminderTime.UTC()
		n.ReminderTime = &t
	}
}
