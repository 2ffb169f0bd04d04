package utils

import (
	"bytes"
	"strings"
	"testing"

	"tonotes/model"
)

func TestValidateNoteStatusRule(t *testing.T) {
	type input struct {
		Status model.NoteStatus `json:"status" validate:"required,notestatus"`
	}

	tests := []struct {
		status  model.NoteStatus
		wantErr bool
	}{
		{model.StatusActive, false},
		{model.StatusHold, false},
		{model.StatusFinished, false},
		{"archived", true},
		{"ACTIVE", true},
		{"", true},
	}

	for _, tt := range tests {
		err := Validate.Struct(input{Status: tt.status})
		if (err != nil) != tt.wantErr {
			t.Errorf("status %q: wantErr %v, got %v", tt.status, tt.wantErr, err)
		}
	}
}

func TestDescribeClient(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      string
	}{
		{"empty", "", "Unknown Browser on Unknown OS (Desktop)"},
		{
			"desktop chrome",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Chrome on Windows (Desktop)",
		},
		{
			"iphone safari",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			"Safari on iOS (Mobile)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DescribeClient(tt.userAgent); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestInitLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	InitLogger(LogConfig{Level: "warn", Output: &buf})
	defer InitLogger(LogConfig{Level: "disabled"})

	Info().Msg("hidden")
	Warn().Str("channel", "7").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message logged at warn level")
	}
	if !strings.Contains(out, `"message":"shown"`) || !strings.Contains(out, `"channel":"7"`) {
		t.Errorf("expected structured warn entry, got %s", out)
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("TEST_LIST", " a, ,b ")
	got := GetEnvAsList("TEST_LIST", nil)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected list %v", got)
	}
	if def := GetEnvAsList("TEST_LIST_MISSING_KEY", []string{"x"}); len(def) != 1 || def[0] != "x" {
		t.Errorf("expected default, got %v", def)
	}
}
