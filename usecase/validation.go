package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tonotes/model"
	"tonotes/utils"

	"github.com/go-playground/validator/v10"
)

// ValidationError rejects input before the store is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// reminderLayouts are tried in order. Values without a zone are taken as UTC;
// browsers' datetime-local inputs send the minute-precision form.
var reminderLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseReminder maps nil and blank input to an absent reminder.
func parseReminder(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, nil
	}
	for _, layout := range reminderLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, &ValidationError{Field: "reminder_time", Message: fmt.Sprintf("invalid timestamp %q", value)}
}

func validateStruct(v interface{}) error {
	err := utils.Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "gte":
		msg = fmt.Sprintf("must be at least %s", fe.Param())
	case "required":
		msg = "is required"
	case "notestatus":
		msg = fmt.Sprintf("must be one of %s, %s, %s", model.StatusActive, model.StatusHold, model.StatusFinished)
	default:
		msg = fmt.Sprintf("failed %s validation", fe.Tag())
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}

// fieldsFromInput validates a full write and normalizes it for the store.
func fieldsFromInput(in model.NoteInput) (model.NoteFields, error) {
	if err := validateStruct(in); err != nil {
		return model.NoteFields{}, err
	}
	reminder, err := parseReminder(in.ReminderTime)
	if err != nil {
		return model.NoteFields{}, err
	}
	return model.NoteFields{
		Title:        in.Title,
		Content:      in.Content,
		Priority:     in.Priority,
		Status:       in.Status,
		ReminderTime: reminder,
	}, nil
}

// checkedPatch is a NotePatch whose present fields already passed validation.
type checkedPatch struct {
	patch    model.NotePatch
	reminder *time.Time
}

func validatePatch(p model.NotePatch) (checkedPatch, error) {
	if p.Empty() {
		return checkedPatch{}, &ValidationError{Message: "no fields to update"}
	}
	if p.Priority.Set && p.Priority.Value < 1 {
		return checkedPatch{}, &ValidationError{Field: "priority", Message: "must be at least 1"}
	}
	if p.Status.Set && !p.Status.Value.Valid() {
		return checkedPatch{}, &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("must be one of %s, %s, %s", model.StatusActive, model.StatusHold, model.StatusFinished),
		}
	}

	checked := checkedPatch{patch: p}
	if p.ReminderTime.Set {
		reminder, err := parseReminder(p.ReminderTime.Value)
		if err != nil {
			return checkedPatch{}, err
		}
		checked.reminder = reminder
	}
	return checked, nil
}

// merge overlays the present fields onto existing.
func (c checkedPatch) merge(existing *model.Note) model.NoteFields {
	fields := model.NoteFields{
		Title:        existing.Title,
		Content:      existing.Content,
		Priority:     existing.Priority,
		Status:       existing.Status,
		ReminderTime: existing.ReminderTime,
	}
	if c.patch.Title.Set {
		fields.Title = c.patch.Title.Value
	}
	if c.patch.Content.Set {
		fields.Content = c.patch.Content.Value
	}
	if c.patch.Priority.Set {
		fields.Priority = c.patch.Priority.Value
	}
	if c.patch.Status.Set {
		fields.Status = c.patch.Status.Value
	}
	if c.patch.ReminderTime.Set {
		fields.ReminderTime = c.reminder
	}
	return fields
}
