package handler

import (
	"errors"
	"net/http"

	"tonotes/dto"
	"tonotes/middleware"
	"tonotes/model"
	"tonotes/usecase"
	"tonotes/utils"

	"github.com/gin-gonic/gin"
)

type NotesHandler struct {
	notesService *usecase.NotesService
}

func NewNotesHandler(notesService *usecase.NotesService) *NotesHandler {
	return &NotesHandler{notesService: notesService}
}

func (h *NotesHandler) ListNotes(c *gin.Context) {
	var status *model.NoteStatus
	if raw := c.Query("status"); raw != "" {
		s := model.NoteStatus(raw)
		status = &s
	}

	notes, err := h.notesService.ListNotes(c.Request.Context(), status)
	if err != nil {
		h.handleError(c, "list", err)
		return
	}

	middleware.TrackNoteOperation("list", "ok")
	utils.Success(c, dto.ToNoteResponses(notes))
}

func (h *NotesHandler) CreateNote(c *gin.Context) {
	var input model.NoteInput
	if !bindBody(c, &input) {
		return
	}

	note, err := h.notesService.CreateNote(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, "create", err)
		return
	}

	middleware.TrackNoteOperation("create", "ok")
	utils.Success(c, note)
}

func (h *NotesHandler) ReplaceNote(c *gin.Context) {
	var input model.NoteInput
	if !bindBody(c, &input) {
		return
	}

	note, err := h.notesService.ReplaceNote(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.handleError(c, "replace", err)
		return
	}

	middleware.TrackNoteOperation("replace", "ok")
	utils.Success(c, note)
}

func (h *NotesHandler) PatchNote(c *gin.Context) {
	var patch model.NotePatch
	if !bindBody(c, &patch) {
		return
	}

	note, err := h.notesService.PatchNote(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.handleError(c, "patch", err)
		return
	}

	middleware.TrackNoteOperation("patch", "ok")
	utils.Success(c, note)
}

func (h *NotesHandler) DeleteNote(c *gin.Context) {
	if err := h.notesService.DeleteNote(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, "delete", err)
		return
	}

	middleware.TrackNoteOperation("delete", "ok")
	utils.Success(c, dto.DeleteResponse{OK: true})
}

func bindBody(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, &utils.Response{
				Status: http.StatusRequestEntityTooLarge,
				Error:  "Request body too large",
			})
			return false
		}
		utils.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

func (h *NotesHandler) handleError(c *gin.Context, operation string, err error) {
	var validationErr *usecase.ValidationError
	switch {
	case errors.As(err, &validationErr):
		middleware.TrackNoteOperation(operation, "invalid")
		middleware.TrackError("validation")
		utils.BadRequest(c, validationErr.Error())
	case errors.Is(err, model.ErrNoteNotFound):
		middleware.TrackNoteOperation(operation, "not_found")
		utils.NotFound(c, "Note not found")
	default:
		middleware.TrackNoteOperation(operation, "error")
		middleware.TrackError("store")
		utils.Error().
			Err(err).
			Str("operation", operation).
			Str("note_id", c.Param("id")).
			Str("request_id", c.GetString("request_id")).
			Msg("note operation failed")
		utils.InternalError(c, "Failed to "+operation+" note")
	}
}
