package dto

import "tonotes/model"

// DeleteResponse acknowledges a successful delete.
type DeleteResponse struct {
	OK bool `json:"ok"`
}

// NoteRef identifies a note that no longer exists.
type NoteRef struct {
	ID string `json:"id"`
}

// ToNoteResponses makes sure an empty list is encoded as [] rather than null.
func ToNoteResponses(notes []*model.Note) []*model.Note {
	if notes == nil {
		return []*model.Note{}
	}
	return notes
}
