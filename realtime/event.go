package realtime

import (
	"fmt"
	"time"

	"tonotes/dto"
	"tonotes/model"

	"github.com/goccy/go-json"
)

type Action string

const (
	ActionSync   Action = "sync"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionTick   Action = "tick"
)

// Event is one message pushed to live clients. Which payload field is used
// depends on Action.
type Event struct {
	Action Action
	Notes  []*model.Note // sync
	Note   *model.Note   // create, update
	NoteID string        // delete
	Now    time.Time     // tick
}

func SyncEvent(notes []*model.Note) Event {
	return Event{Action: ActionSync, Notes: dto.ToNoteResponses(notes)}
}

func CreateEvent(note *model.Note) Event {
	return Event{Action: ActionCreate, Note: note}
}

func UpdateEvent(note *model.Note) Event {
	return Event{Action: ActionUpdate, Note: note}
}

func DeleteEvent(id string) Event {
	return Event{Action: ActionDelete, NoteID: id}
}

func TickEvent(now time.Time) Event {
	return Event{Action: ActionTick, Now: now.UTC()}
}

type syncMessage struct {
	Action Action        `json:"action"`
	Notes  []*model.Note `json:"notes"`
}

type noteMessage struct {
	Action Action      `json:"action"`
	Note   *model.Note `json:"note"`
}

type deleteMessage struct {
	Action Action      `json:"action"`
	Note   dto.NoteRef `json:"note"`
}

type tickMessage struct {
	Action Action    `json:"action"`
	Now    time.Time `json:"now"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Action {
	case ActionSync:
		return json.Marshal(syncMessage{Action: e.Action, Notes: dto.ToNoteResponses(e.Notes)})
	case ActionCreate, ActionUpdate:
		return json.Marshal(noteMessage{Action: e.Action, Note: e.Note})
	case ActionDelete:
		return json.Marshal(deleteMessage{Action: e.Action, Note: dto.NoteRef{ID: e.NoteID}})
	case ActionTick:
		return json.Marshal(tickMessage{Action: e.Action, Now: e.Now})
	default:
		return nil, fmt.Errorf("unknown event action %q", e.Action)
	}
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var wire struct {
		Action Action        `json:"action"`
		Notes  []*model.Note `json:"notes"`
		Note   *model.Note   `json:"note"`
		Now    time.Time     `json:"now"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*e = Event{Action: wire.Action}
	switch wire.Action {
	case ActionSync:
		e.Notes = dto.ToNoteResponses(wire.Notes)
	case ActionCreate, ActionUpdate:
		e.Note = wire.Note
	case ActionDelete:
		if wire.Note != nil {
			e.NoteID = wire.Note.ID
		}
	case ActionTick:
		e.Now = wire.Now
	default:
		return fmt.Errorf("unknown event action %q", wire.Action)
	}
	return nil
}

// ClientMessage is what clients may send over the socket.
type ClientMessage struct {
	Action Action `json:"action"`
}
