package main

import (
	"testing"

	"github.com/stemsi/exstem-attempt/internal/model"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantArg  string
	}{
		{"", "", ""},
		{"   ", "", ""},
		{"next", "next", ""},
		{"N", "next", ""},
		{"p", "prev", ""},
		{"3", "goto", "3"},
		{"goto 12", "goto", "12"},
		{"a  Jakarta raya ", "answer", "Jakarta raya"},
		{"answer 2", "answer", "2"},
		{"q", "quit", ""},
		{"?", "help", ""},
		{"bogus x", "bogus", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := parseCommand(tt.line)
			if got.name != tt.wantName || got.arg != tt.wantArg {
				t.Errorf("parseCommand(%q) = {%q %q}, want {%q %q}", tt.line, got.name, got.arg, tt.wantName, tt.wantArg)
			}
		})
	}
}

func TestResolveAnswer(t *testing.T) {
	choice := model.Question{Type: model.QuestionTypeSingleChoice, Options: []string{"A", "B", "C"}}
	free := model.Question{Type: model.QuestionTypeFreeResponse}

	tests := []struct {
		name  string
		q     model.Question
		input string
		want  string
	}{
		{"option number", choice, "2", "B"},
		{"option text", choice, "C", "C"},
		{"out of range stays raw", choice, "9", "9"},
		{"zero stays raw", choice, "0", "0"},
		{"free response untouched", free, "2", "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveAnswer(tt.q, tt.input); got != tt.want {
				t.Errorf("resolveAnswer(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := map[int64]string{
		0:    "00:00:00",
		-5:   "00:00:00",
		59:   "00:00:59",
		300:  "00:05:00",
		3725: "01:02:05",
	}
	for in, want := range tests {
		if got := formatRemaining(in); got != want {
			t.Errorf("formatRemaining(%d) = %q, want %q", in, got, want)
		}
	}
}
