package model

import (
	"errors"
	"time"
)

var ErrNoteNotFound = errors.New("note not found")

type NoteStatus string

const (
	StatusActive   NoteStatus = "active"
	StatusHold     NoteStatus = "hold"
	StatusFinished NoteStatus = "finished"
)

// Valid reports whether s is one of the known statuses.
func (s NoteStatus) Valid() bool {
	switch s {
	case StatusActive, StatusHold, StatusFinished:
		return true
	}
	return false
}

type Note struct {
	ID           string     `bson:"_id" json:"id"`
	Title        string     `bson:"title" json:"title"`
	Content      string     `bson:"content" json:"content"`
	Priority     int        `bson:"priority" json:"priority"`
	Status       NoteStatus `bson:"status" json:"status"`
	ReminderTime *time.Time `bson:"reminder_time,omitempty" json:"reminder_time"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy so callers can't alias store-owned records.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	c := *n
	if n.ReminderTime != nil {
		t := *n.ReminderTime
		c.ReminderTime = &t
	}
	return &c
}
