package shared

import (
	"bytes"
	"strings"
	"testing"
)

func TestNormalizeTrackKey(t *testing.T) {
	tc := []struct {
		name   string
		title  string
		artist string
		want   string
	}{
		{
			name:   "basic normalization",
			title:  "Song Title",
			artist: "Artist Name",
			want:   "song title|artist name",
		},
		{
			name:   "extra whitespace",
			title:  "  Song   Title  ",
			artist: "  Artist   Name  ",
			want:   "song title|artist name",
		},
		{
			name:   "mixed case",
			title:  "SoNg TiTlE",
			artist: "ArTiSt NaMe",
			want:   "song title|artist name",
		},
		{
			name:   "newlines from markup",
			title:  "Heartattack\n\t and Vine",
			artist: "Tom Waits",
			want:   "heartattack and vine|tom waits",
		},
		{
			name:   "composed and decomposed accents",
			title:  "Jo\u0301ga",
			artist: "BJÖRK",
			want:   "jóga|björk",
		},
		{
			name:   "full case folding",
			title:  "STRASSE",
			artist: "Straße",
			want:   "strasse|strasse",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTrackKey(tt.title, tt.artist)
			if got != tt.want {
				t.Errorf("NormalizeTrackKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "test")
		logger.Info("hello")

		out := buf.String()
		if !strings.Contains(out, "hello") {
			t.Errorf("expected log line to contain message, got %q", out)
		}
		if !strings.Contains(out, "component=test") {
			t.Errorf("expected log line to contain child fields, got %q", out)
		}
	})

	t.Run("GenerateID is unique", func(t *testing.T) {
		if GenerateID() == GenerateID() {
			t.Error("expected distinct IDs")
		}
	})
}
