package model

import "time"

// NoteInput is the full set of client-writable fields, used by create and replace.
// ReminderTime stays raw so blank values can be normalized before parsing.
type NoteInput struct {
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Priority     int        `json:"priority" validate:"gte=1"`
	Status       NoteStatus `json:"status" validate:"required,notestatus"`
	ReminderTime *string    `json:"reminder_time"`
}

// NotePatch carries only the fields a client sent. A field sent as null is Set
// with its zero value.
type NotePatch struct {
	Title        Optional[string]     `json:"title"`
	Content      Optional[string]     `json:"content"`
	Priority     Optional[int]        `json:"priority"`
	Status       Optional[NoteStatus] `json:"status"`
	ReminderTime Optional[*string]    `json:"reminder_time"`
}

// Empty reports whether no field was sent.
func (p NotePatch) Empty() bool {
	return !p.Title.Set && !p.Content.Set && !p.Priority.Set && !p.Status.Set && !p.ReminderTime.Set
}

// NoteFields is the validated, normalized form written to the store.
type NoteFields struct {
	Title        string
	Content      string
	Priority     int
	Status       NoteStatus
	ReminderTime *time.Time
}

// Apply overwrites every mutable field of n.
func (f NoteFields) Apply(n *Note) {
	n.Title = f.Title
	n.Content = f.Content
	n.Priority = f.Priority
	n.Status = f.Status
	n.ReminderTime = f.ReminderTime
}
