package scanner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tracklift/internal/models"
)

const playlistPage = `
<html><body>
	<table>
		<tr><th>Artist</th><th>Song</th></tr>
		<tr><td>Tom Waits</td><td>Heartattack and Vine</td></tr>
		<tr><td>Nina Simone</td><td>Sinnerman</td></tr>
	</table>
	<ul>
		<li class="playlist-item"><span class="song-title">Hey Jude</span><span class="artist-name">The Beatles</span></li>
	</ul>
</body></html>`

func countButtons(doc *Document) int {
	n := 0
	doc.View(func(root Node) {
		n = len(queryAll(root, parseSelector("."+ButtonClass)))
	})
	return n
}

func pass(doc *Document, tr *Tracker) []*Attachment {
	var added []*Attachment
	doc.Update(func(root Node) {
		added = tr.Attach(Scan(root))
	})
	return added
}

func TestTracker(t *testing.T) {
	t.Run("Second Pass Attaches Nothing", func(t *testing.T) {
		doc := mustParse(t, playlistPage)
		tr := NewTracker(nil)

		first := pass(doc, tr)
		if len(first) != 3 {
			t.Fatalf("expected 3 attachments, got %d", len(first))
		}

		second := pass(doc, tr)
		if len(second) != 0 {
			t.Errorf("expected no new attachments, got %d", len(second))
		}
		if countButtons(doc) != 3 {
			t.Errorf("expected one button per container, got %d", countButtons(doc))
		}
	})

	t.Run("Marks Containers", func(t *testing.T) {
		doc := mustParse(t, playlistPage)
		pass(doc, NewTracker(nil))

		out := doc.String()
		if strings.Count(out, AttachedAttr+`="true"`) != 3 {
			t.Errorf("expected 3 markers in %s", out)
		}
		if strings.Count(out, RowClass) != 3 {
			t.Errorf("expected 3 row classes in %s", out)
		}
		if !strings.Contains(out, ButtonLabel) {
			t.Error("expected button label")
		}
	})

	t.Run("Duplicate Keys Within A Call", func(t *testing.T) {
		doc := mustParse(t, `<ul>
			<li><span class="song-title">A</span><span class="artist-name">B</span></li>
			<li><span class="song-title">a</span><span class="artist-name">b</span></li>
		</ul>`)
		tr := NewTracker(nil)

		var added []*Attachment
		doc.Update(func(root Node) {
			added = tr.Attach(AttributeCandidates(root))
		})

		if len(added) != 1 {
			t.Errorf("expected 1 attachment, got %d", len(added))
		}
	})

	t.Run("One Container One Action", func(t *testing.T) {
		doc := mustParse(t, `<li data-artist-name="X"><span class="song-title">One</span><span class="track-title">Two</span></li>`)
		tr := NewTracker(nil)

		var added []*Attachment
		doc.Update(func(root Node) {
			added = tr.Attach(Scan(root))
		})

		if len(added) != 1 {
			t.Errorf("expected a single attachment for the shared container, got %d", len(added))
		}
		if countButtons(doc) != 1 {
			t.Errorf("expected one button, got %d", countButtons(doc))
		}
	})

	t.Run("Stable Indexes", func(t *testing.T) {
		doc := mustParse(t, playlistPage)
		tr := NewTracker(nil)
		pass(doc, tr)

		all := tr.Attachments()
		for i, a := range all {
			if a.Index != i+1 {
				t.Errorf("expected index %d, got %d", i+1, a.Index)
			}
		}

		a, ok := tr.Get(2)
		if !ok || a.Track.TrackName != "Sinnerman" {
			t.Errorf("unexpected attachment %+v", a)
		}
		if a.Element() != "tr" {
			t.Errorf("expected tr container, got %q", a.Element())
		}
		if _, ok := tr.Get(0); ok {
			t.Error("expected index 0 to be invalid")
		}
		if _, ok := tr.Get(4); ok {
			t.Error("expected index 4 to be invalid")
		}
	})

	t.Run("Trigger", func(t *testing.T) {
		var got models.Track
		action := func(ctx context.Context, track models.Track) (*models.AddResult, error) {
			got = track
			return &models.AddResult{MatchedTrackURI: "spotify:track:1"}, nil
		}

		doc := mustParse(t, playlistPage)
		tr := NewTracker(action)
		pass(doc, tr)

		a, _ := tr.Get(1)
		result, err := a.Trigger(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.MatchedTrackURI != "spotify:track:1" || got.ArtistName != "Tom Waits" {
			t.Errorf("unexpected trigger result %+v for %+v", result, got)
		}
	})

	t.Run("Trigger Without Action", func(t *testing.T) {
		doc := mustParse(t, playlistPage)
		tr := NewTracker(nil)
		pass(doc, tr)

		a, _ := tr.Get(1)
		if _, err := a.Trigger(context.Background()); !errors.Is(err, errNoAction) {
			t.Errorf("expected errNoAction, got %v", err)
		}
	})
}

func TestWatcher(t *testing.T) {
	t.Run("Initial Pass And Mutations", func(t *testing.T) {
		doc := mustParse(t, playlistPage)
		attached := make(chan []*Attachment, 8)

		w := NewWatcher(doc, WatcherOpts{
			Window:   20 * time.Millisecond,
			OnAttach: func(added []*Attachment) { attached <- added },
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()

		select {
		case added := <-attached:
			if len(added) != 3 {
				t.Errorf("expected 3 initial attachments, got %d", len(added))
			}
		case <-time.After(2 * time.Second):
			t.Fatal("initial pass never ran")
		}

		err := doc.Mutate(func(root Node) error {
			ul := queryFirst(root, parseSelector("ul"))
			li := ul.AppendElement("li", map[string]string{"class": "playlist-item"}, "")
			li.AppendElement("span", map[string]string{"class": "song-title"}, "Blackbird")
			li.AppendElement("span", map[string]string{"class": "artist-name"}, "The Beatles")
			return nil
		})
		if err != nil {
			t.Fatalf("mutate failed: %v", err)
		}

		select {
		case added := <-attached:
			if len(added) != 1 || added[0].Track.TrackName != "Blackbird" || added[0].Index != 4 {
				t.Errorf("unexpected attachments %+v", added)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("mutation never rescanned")
		}

		cancel()
		if err := <-done; err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
		if countButtons(doc) != 4 {
			t.Errorf("expected 4 buttons, got %d", countButtons(doc))
		}
	})

	t.Run("Replace Is A Reload", func(t *testing.T) {
		doc := mustParse(t, playlistPage)
		w := NewWatcher(doc, WatcherOpts{})

		if n := len(w.Pass()); n != 3 {
			t.Fatalf("expected 3, got %d", n)
		}
		if err := doc.Replace(strings.NewReader(playlistPage)); err != nil {
			t.Fatalf("replace failed: %v", err)
		}
		if n := len(w.Pass()); n != 3 {
			t.Errorf("expected a reloaded page to be attached again, got %d", n)
		}
		if len(w.Tracker().Attachments()) != 6 {
			t.Errorf("expected indexes to keep counting, got %d", len(w.Tracker().Attachments()))
		}
	})

	t.Run("Identical Rows Attach Once Across Passes", func(t *testing.T) {
		doc := mustParse(t, `<table>
			<tr><th>Artist</th><th>Song</th></tr>
			<tr><td>Tom Waits</td><td>Heartattack and Vine</td></tr>
			<tr><td>Tom Waits</td><td>Heartattack and Vine</td></tr>
		</table>`)
		w := NewWatcher(doc, WatcherOpts{})

		for i, want := range []int{1, 0, 0} {
			if got := len(w.Pass()); got != want {
				t.Errorf("pass %d: expected %d new attachments, got %d", i+1, want, got)
			}
		}
		if countButtons(doc) != 1 {
			t.Errorf("expected a single button, got %d", countButtons(doc))
		}
	})

	t.Run("Observer Cancel", func(t *testing.T) {
		doc := mustParse(t, playlistPage)
		var mu sync.Mutex
		calls := 0
		cancel := doc.Observe(func() { mu.Lock(); calls++; mu.Unlock() })

		doc.Mutate(func(Node) error { return nil })
		cancel()
		doc.Mutate(func(Node) error { return nil })

		mu.Lock()
		defer mu.Unlock()
		if calls != 1 {
			t.Errorf("expected 1 notification, got %d", calls)
		}
	})
}
