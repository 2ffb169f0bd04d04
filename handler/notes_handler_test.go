package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tonotes/middleware"
	"tonotes/model"
	"tonotes/realtime"
	"tonotes/repository"
	"tonotes/testutils"
	"tonotes/usecase"
	"tonotes/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.InitLogger(utils.LogConfig{Level: "disabled", Output: io.Discard})
}

type handlerEnv struct {
	router  *gin.Engine
	service *usecase.NotesService
	repo    *repository.MemoryRepo
	clock   *testutils.FixedTime
}

func setupNotesRouter(t *testing.T) *handlerEnv {
	t.Helper()
	clock := testutils.NewFixedTime(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	repo := repository.NewMemoryRepo()
	repo.Now = clock.Now
	service := usecase.NewNotesService(repo, realtime.NewHub(realtime.NewRegistry()))

	notesHandler := NewNotesHandler(service)
	router := gin.New()
	router.Use(middleware.RequestSizeLimiter(1024))
	router.GET("/notes", notesHandler.ListNotes)
	router.POST("/notes", notesHandler.CreateNote)
	router.PUT("/notes/:id", notesHandler.ReplaceNote)
	router.PATCH("/notes/:id", notesHandler.PatchNote)
	router.DELETE("/notes/:id", notesHandler.DeleteNote)

	return &handlerEnv{router: router, service: service, repo: repo, clock: clock}
}

func (e *handlerEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *handlerEnv) seed(t *testing.T, title string, priority int, status model.NoteStatus) *model.Note {
	t.Helper()
	note, err := e.service.CreateNote(context.Background(), model.NoteInput{
		Title:    title,
		Content:  title + " body",
		Priority: priority,
		Status:   status,
	})
	if err != nil {
		t.Fatalf("failed to seed note: %v", err)
	}
	e.clock.Advance(time.Second)
	return note
}

func decodeNote(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %s: %v", w.Body.String(), err)
	}
	return out
}

func TestCreateNoteHandler(t *testing.T) {
	tests := []struct {
		name          string
		inputJSON     string
		expectedCode  int
		checkResponse func(*testing.T, map[string]interface{})
	}{
		{
			name:         "Successful Creation",
			inputJSON:    `{"title":"a","content":"b","priority":1,"status":"active","reminder_time":""}`,
			expectedCode: http.StatusOK,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				if body["id"] == "" || body["id"] == nil {
					t.Error("expected an id")
				}
				if body["reminder_time"] != nil {
					t.Errorf("expected null reminder_time, got %v", body["reminder_time"])
				}
				if body["title"] != "a" || body["status"] != "active" {
					t.Errorf("unexpected note %v", body)
				}
				if _, ok := body["created_at"]; !ok {
					t.Error("expected created_at")
				}
			},
		},
		{
			name:         "Reminder Parsed",
			inputJSON:    `{"title":"r","content":"","priority":2,"status":"hold","reminder_time":"2026-04-01T09:15"}`,
			expectedCode: http.StatusOK,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				if body["reminder_time"] != "2026-04-01T09:15:00Z" {
					t.Errorf("unexpected reminder_time %v", body["reminder_time"])
				}
			},
		},
		{
			name:         "Priority Zero",
			inputJSON:    `{"title":"a","content":"b","priority":0,"status":"active"}`,
			expectedCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				if !strings.Contains(body["error"].(string), "priority") {
					t.Errorf("expected priority error, got %v", body["error"])
				}
			},
		},
		{
			name:         "Unknown Status",
			inputJSON:    `{"title":"a","content":"b","priority":1,"status":"someday"}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Malformed Reminder",
			inputJSON:    `{"title":"a","content":"b","priority":1,"status":"active","reminder_time":"soon"}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Invalid JSON",
			inputJSON:    `{"title":`,
			expectedCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				if body["error"] != "Invalid request body" {
					t.Errorf("unexpected error %v", body["error"])
				}
			},
		},
		{
			name:         "Body Too Large",
			inputJSON:    `{"title":"` + strings.Repeat("x", 2048) + `","priority":1,"status":"active"}`,
			expectedCode: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupNotesRouter(t)
			w := env.do(t, http.MethodPost, "/notes", tt.inputJSON)

			if w.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedCode, w.Code, w.Body.String())
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, decodeNote(t, w))
			}

			notes, _ := env.repo.ListNotes(context.Background(), nil)
			wantStored := 0
			if tt.expectedCode == http.StatusOK {
				wantStored = 1
			}
			if len(notes) != wantStored {
				t.Errorf("expected %d stored notes, got %d", wantStored, len(notes))
			}
		})
	}
}

func TestListNotesHandler(t *testing.T) {
	env := setupNotesRouter(t)

	w := env.do(t, http.MethodGet, "/notes", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %d %s", w.Code, w.Body.String())
	}

	env.seed(t, "third", 3, model.StatusActive)
	env.seed(t, "first", 1, model.StatusFinished)
	env.seed(t, "second", 2, model.StatusActive)

	tests := []struct {
		name         string
		query        string
		expectedCode int
		wantTitles   []string
	}{
		{"all by priority", "", http.StatusOK, []string{"first", "second", "third"}},
		{"filtered", "?status=active", http.StatusOK, []string{"second", "third"}},
		{"no matches", "?status=hold", http.StatusOK, []string{}},
		{"bad status", "?status=lost", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/notes"+tt.query, "")
			if w.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, w.Code)
			}
			if tt.wantTitles == nil {
				return
			}
			var notes []model.Note
			if err := json.Unmarshal(w.Body.Bytes(), &notes); err != nil {
				t.Fatal(err)
			}
			if len(notes) != len(tt.wantTitles) {
				t.Fatalf("expected %d notes, got %d", len(tt.wantTitles), len(notes))
			}
			for i, title := range tt.wantTitles {
				if notes[i].Title != title {
					t.Errorf("position %d: expected %q, got %q", i, title, notes[i].Title)
				}
			}
		})
	}
}

func TestReplaceNoteHandler(t *testing.T) {
	env := setupNotesRouter(t)
	note := env.seed(t, "old", 1, model.StatusActive)

	w := env.do(t, http.MethodPut, "/notes/"+note.ID,
		`{"title":"new","content":"x","priority":4,"status":"hold","reminder_time":null}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeNote(t, w)
	if body["id"] != note.ID || body["title"] != "new" || body["priority"] != float64(4) || body["status"] != "hold" {
		t.Errorf("unexpected replaced note %v", body)
	}

	w = env.do(t, http.MethodPut, "/notes/missing",
		`{"title":"new","content":"x","priority":4,"status":"hold"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", w.Code)
	}

	w = env.do(t, http.MethodPut, "/notes/"+note.ID, `{"title":"new","priority":-1,"status":"hold"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid priority, got %d", w.Code)
	}
}

func TestPatchNoteHandler(t *testing.T) {
	env := setupNotesRouter(t)
	note := env.seed(t, "patch me", 2, model.StatusActive)

	tests := []struct {
		name         string
		id           string
		inputJSON    string
		expectedCode int
		check        func(*testing.T, map[string]interface{})
	}{
		{
			name:         "Status Only",
			id:           note.ID,
			inputJSON:    `{"status":"finished"}`,
			expectedCode: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				if body["status"] != "finished" || body["title"] != "patch me" || body["priority"] != float64(2) {
					t.Errorf("unexpected patched note %v", body)
				}
				if body["updated_at"] == body["created_at"] {
					t.Error("expected updated_at to advance")
				}
			},
		},
		{
			name:         "Explicit Empty Content",
			id:           note.ID,
			inputJSON:    `{"content":""}`,
			expectedCode: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				if body["content"] != "" {
					t.Errorf("expected empty content, got %v", body["content"])
				}
			},
		},
		{"Empty Patch", note.ID, `{}`, http.StatusBadRequest, nil},
		{"Invalid Priority", note.ID, `{"priority":0}`, http.StatusBadRequest, nil},
		{"Wrong Type", note.ID, `{"priority":"high"}`, http.StatusBadRequest, nil},
		{"Unknown Note", "nope", `{"title":"x"}`, http.StatusNotFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.clock.Advance(time.Second)
			w := env.do(t, http.MethodPatch, "/notes/"+tt.id, tt.inputJSON)
			if w.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedCode, w.Code, w.Body.String())
			}
			if tt.check != nil {
				tt.check(t, decodeNote(t, w))
			}
		})
	}
}

func TestDeleteNoteHandler(t *testing.T) {
	env := setupNotesRouter(t)
	note := env.seed(t, "bye", 1, model.StatusActive)

	w := env.do(t, http.MethodDelete, "/notes/"+note.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Equal(bytes.TrimSpace(w.Body.Bytes()), []byte(`{"ok":true}`)) {
		t.Errorf("unexpected body %s", w.Body.String())
	}

	w = env.do(t, http.MethodDelete, "/notes/"+note.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
	if body := decodeNote(t, w); body["error"] != "Note not found" {
		t.Errorf("unexpected error body %v", body)
	}
}

type brokenStore struct {
	repository.NoteStore
}

func (brokenStore) ListNotes(context.Context, *model.NoteStatus) ([]*model.Note, error) {
	return nil, errors.New("connection reset")
}

func (brokenStore) DeleteNote(context.Context, string) error {
	return errors.New("connection reset")
}

func TestNotesHandlerStoreFailure(t *testing.T) {
	env := setupNotesRouter(t)
	env.service.NotesRepo = brokenStore{NoteStore: env.repo}

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/notes"},
		{http.MethodDelete, "/notes/some-id"},
	} {
		w := env.do(t, tc.method, tc.path, "")
		if w.Code != http.StatusInternalServerError {
			t.Errorf("%s %s: expected 500, got %d", tc.method, tc.path, w.Code)
		}
		if strings.Contains(w.Body.String(), "connection reset") {
			t.Errorf("%s %s: driver error leaked to client: %s", tc.method, tc.path, w.Body.String())
		}
	}
}
