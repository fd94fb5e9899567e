// package formatter renders scan results and play history as text, CSV, Markdown or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/shared"
	"github.com/mattn/go-runewidth"
)

// Format names an output encoding.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// Formats lists every supported [Format].
var Formats = []Format{Text, CSV, Markdown, JSON}

// ParseFormat resolves a format name, accepting "md" for Markdown.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", Text:
		return Text, nil
	case "md", Markdown:
		return Markdown, nil
	case CSV, JSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
	}
}

// maxColumn caps text-table columns so one long title cannot push the rest off screen.
const maxColumn = 48

// Entry is one attached candidate in a scan listing.
type Entry struct {
	Index   int          `json:"index"`
	Track   models.Track `json:"track"`
	Element string       `json:"element"`
}

// Candidates renders a scan listing in the given format.
func Candidates(format Format, entries []Entry) ([]byte, error) {
	switch format {
	case CSV:
		return candidatesCSV(entries)
	case Markdown:
		return candidatesMarkdown(entries), nil
	case JSON:
		return marshal(entries)
	default:
		return candidatesText(entries), nil
	}
}

func candidatesCSV(entries []Entry) ([]byte, error) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{strconv.Itoa(e.Index), e.Track.TrackName, e.Track.ArtistName, e.Element})
	}
	return writeCSV([]string{"Index", "Song", "Artist", "Element"}, rows)
}

func candidatesMarkdown(entries []Entry) []byte {
	var buf bytes.Buffer
	buf.WriteString("| # | Song | Artist |\n|---|------|--------|\n")
	for _, e := range entries {
		fmt.Fprintf(&buf, "| %d | %s | %s |\n", e.Index, escapeCell(e.Track.TrackName), escapeCell(e.Track.ArtistName))
	}
	return buf.Bytes()
}

func candidatesText(entries []Entry) []byte {
	if len(entries) == 0 {
		return []byte("No tracks found.\n")
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{strconv.Itoa(e.Index) + ".", e.Track.TrackName, e.Track.ArtistName})
	}
	return table(rows)
}

// History renders station plays in the given format.
func History(format Format, songs []models.PlayedSong) ([]byte, error) {
	switch format {
	case CSV:
		rows := make([][]string, 0, len(songs))
		for _, s := range songs {
			rows = append(rows, []string{s.PlayedAt.Format("2006-01-02 15:04:05"), s.Artist, s.SongTitle, s.Album, s.ImageURL})
		}
		return writeCSV([]string{"Played At", "Artist", "Song", "Album", "Image URL"}, rows)
	case Markdown:
		var buf bytes.Buffer
		buf.WriteString("| Played At | Artist | Song | Album |\n|-----------|--------|------|-------|\n")
		for _, s := range songs {
			fmt.Fprintf(&buf, "| %s | %s | %s | %s |\n",
				s.PlayedAt.Format("15:04"), escapeCell(s.Artist), escapeCell(s.SongTitle), escapeCell(s.Album))
		}
		return buf.Bytes(), nil
	case JSON:
		return marshal(songs)
	default:
		if len(songs) == 0 {
			return []byte("No plays recorded.\n"), nil
		}
		rows := make([][]string, 0, len(songs))
		for _, s := range songs {
			rows = append(rows, []string{s.PlayedAt.Format("15:04"), s.Artist, s.SongTitle})
		}
		return table(rows), nil
	}
}

// WriteFile renders entries and writes them to path.
func WriteFile(path string, format Format, entries []Entry) error {
	data, err := Candidates(format, entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// table aligns rows by display width, so wide runes line up in a terminal.
func table(rows [][]string) []byte {
	widths := map[int]int{}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], min(runewidth.StringWidth(cell), maxColumn))
		}
	}

	var buf bytes.Buffer
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cell = runewidth.Truncate(cell, maxColumn, "…")
			if i == len(row)-1 {
				cells[i] = cell
				continue
			}
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		buf.WriteString(strings.Join(cells, "  "))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV record: %w", err)
	}
	return buf.Bytes(), nil
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
