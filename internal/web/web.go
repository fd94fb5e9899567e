// Package web renders the backend's HTML pages.
//
// Each page is a "content" template executed inside the shared "layout":
//
//	linked.html   → shown after the popup's login completes
//	profile.html  → the browser login landing page and /top-tracks
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/desertthunder/tracklift/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{"join": strings.Join}

var (
	linkedPage  = mustPage("linked.html")
	profilePage = mustPage("profile.html")
)

func mustPage(name string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

// ProfileView is the data behind the profile page.
type ProfileView struct {
	Title  string
	Name   string
	Tracks []models.CatalogTrack
}

// RenderLinked writes the confirmation page shown once the popup's login completes.
func RenderLinked(w io.Writer) error {
	return render(w, linkedPage, struct{ Title string }{"Spotify Connected"})
}

// RenderProfile writes a greeting and the user's top tracks.
func RenderProfile(w io.Writer, view ProfileView) error {
	if view.Title == "" {
		view.Title = "tracklift"
	}
	return render(w, profilePage, view)
}

func render(w io.Writer, t *template.Template, data any) error {
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}
