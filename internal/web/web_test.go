package web

import (
	"bytes"
	"strings"
	"testing"

	"github.com/desertthunder/tracklift/internal/models"
	tu "github.com/desertthunder/tracklift/internal/testing"
)

func TestPages(t *testing.T) {
	t.Run("Linked", func(t *testing.T) {
		var buf bytes.Buffer
		if err := RenderLinked(&buf); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(buf.String(), "Spotify Connected") {
			t.Errorf("unexpected page %s", buf.String())
		}
	})

	t.Run("Profile", func(t *testing.T) {
		var buf bytes.Buffer
		err := RenderProfile(&buf, ProfileView{
			Name: "Ada <script>",
			Tracks: []models.CatalogTrack{
				{Name: "Jóga", Artists: []string{"Björk"}},
				{Name: "Under Pressure", Artists: []string{"Queen", "David Bowie"}},
			},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := buf.String()
		if strings.Contains(out, "<script>") {
			t.Error("expected the name to be escaped")
		}
		if !strings.Contains(out, "Queen, David Bowie") {
			t.Error("expected joined artists")
		}
		if !strings.Contains(out, "<title>tracklift</title>") {
			t.Error("expected default title")
		}
	})

	t.Run("Profile Without Tracks", func(t *testing.T) {
		var buf bytes.Buffer
		RenderProfile(&buf, ProfileView{Name: "Ada"})
		if !strings.Contains(buf.String(), "No top tracks yet.") {
			t.Errorf("unexpected page %s", buf.String())
		}
	})

	t.Run("Write Failure", func(t *testing.T) {
		if err := RenderLinked(&tu.FWriter{}); err == nil {
			t.Error("expected write error")
		}
	})
}
