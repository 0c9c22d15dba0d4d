package cue

import (
	"bytes"
	"testing"
)

func TestBell(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		want string
	}{
		{"session", Session, "\a"},
		{"goal", Goal, "\a\a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewBell(&buf).Play(tt.kind)
			if buf.String() != tt.want {
				t.Errorf("Play(%v) wrote %q, want %q", tt.kind, buf.String(), tt.want)
			}
		})
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Play(Session)
	r.Play(Goal)

	got := r.Played()
	if len(got) != 2 || got[0] != Session || got[1] != Goal {
		t.Errorf("Played() = %v", got)
	}
}
