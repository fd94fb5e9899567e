package scanner

import (
	"strings"

	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/shared"
)

const (
	// AttachedAttr marks a container that already received an add action.
	AttachedAttr = "data-tracklift-button"
	// RowClass is added to every attached container.
	RowClass = "tracklift-row"
	// ButtonClass is the class of the injected action element.
	ButtonClass = "tracklift-add-button"
	// ButtonLabel is the injected action element's text.
	ButtonLabel = "Add to Spotify"
)

var (
	tableSel  = parseSelectors("table")
	headerSel = parseSelectors("th")
	rowSel    = parseSelectors("tr")
	cellSel   = parseSelectors("td")

	titleSels     = []string{"[data-song-title]", "[data-track-title]", ".song-title", ".track-title"}
	containerSels = parseSelectors("[data-artist-name]", ".playlist-item", "li", "article", "div")
	artistSels    = parseSelectors("[data-artist-name]", ".artist-name")
)

// Candidate is a track mention found in a document, not yet acted upon.
type Candidate struct {
	Container Node
	Track     models.Track
}

// Key returns the candidate's case-insensitive identity.
func (c Candidate) Key() string {
	return c.Track.Key()
}

// Attached reports whether the candidate's container already carries the attachment marker.
func (c Candidate) Attached() bool {
	_, ok := c.Container.Attr(AttachedAttr)
	return ok
}

// Scan runs both heuristics over root and returns the merged candidates.
//
// Candidates whose container is already attached are dropped, and so is every later
// candidate sharing their key. Scan never writes to the tree.
func Scan(root Node) []Candidate {
	merged := append(TableCandidates(root), AttributeCandidates(root)...)
	return dedupe(merged)
}

func dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		key := c.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if c.Attached() {
			continue
		}
		out = append(out, c)
	}
	return out
}

// TableCandidates finds rows of tables whose headers name both a song (or title) column and an artist column.
func TableCandidates(root Node) []Candidate {
	var out []Candidate
	for _, table := range queryAll(root, tableSel...) {
		songIdx, artistIdx := -1, -1
		for i, th := range queryAll(table, headerSel...) {
			h := strings.ToLower(text(th))
			if songIdx < 0 && (strings.Contains(h, "song") || strings.Contains(h, "title")) {
				songIdx = i
			}
			if artistIdx < 0 && strings.Contains(h, "artist") {
				artistIdx = i
			}
		}
		if songIdx < 0 || artistIdx < 0 {
			continue
		}

		for _, row := range queryAll(table, rowSel...) {
			cells := queryAll(row, cellSel...)
			if songIdx >= len(cells) || artistIdx >= len(cells) {
				continue
			}
			track := text(cells[songIdx])
			artist := text(cells[artistIdx])
			if track == "" || artist == "" {
				continue
			}
			out = append(out, Candidate{
				Container: row,
				Track:     models.Track{TrackName: track, ArtistName: artist},
			})
		}
	}
	return out
}

// AttributeCandidates finds title-bearing elements and pairs each with the artist exposed by its nearest container.
func AttributeCandidates(root Node) []Candidate {
	var out []Candidate
	for _, s := range titleSels {
		sel := parseSelector(s)
		for _, titleEl := range queryAll(root, sel) {
			title := text(titleEl)
			if title == "" && sel.attr != "" {
				v, _ := titleEl.Attr(sel.attr)
				title = shared.NormalizeText(v)
			}
			if title == "" {
				continue
			}

			container, artist := nearestArtist(titleEl)
			if container == nil {
				continue
			}
			out = append(out, Candidate{
				Container: container,
				Track:     models.Track{TrackName: title, ArtistName: artist},
			})
		}
	}
	return out
}

// nearestArtist walks from n through its ancestors and returns the first container exposing a non-empty artist.
func nearestArtist(n Node) (Node, string) {
	for cur := n; cur != nil; cur = cur.Parent() {
		if !matchAny(cur, containerSels) {
			continue
		}
		if artist := artistOf(cur); artist != "" {
			return cur, artist
		}
	}
	return nil, ""
}

func artistOf(container Node) string {
	if el := queryFirst(container, artistSels...); el != nil {
		if t := text(el); t != "" {
			return t
		}
		if v, ok := el.Attr("data-artist-name"); ok {
			if t := shared.NormalizeText(v); t != "" {
				return t
			}
		}
	}
	if v, ok := container.Attr("data-artist-name"); ok {
		return shared.NormalizeText(v)
	}
	return ""
}
