package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/tracklift/internal/bus"
	"github.com/desertthunder/tracklift/internal/formatter"
	"github.com/desertthunder/tracklift/internal/scanner"
	"github.com/desertthunder/tracklift/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Scan lists the tracks found in a document and triggers the ones named by --add.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	src := cmd.StringArg("source")
	if src == "" {
		return fmt.Errorf("%w: file or URL to scan", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	doc, err := scanner.Load(ctx, src, r.httpClient)
	if err != nil {
		return err
	}

	indexes := cmd.IntSlice("add")
	opts := scanner.WatcherOpts{Logger: shared.WithLogger(r.logger, "source", src)}
	if len(indexes) > 0 {
		client, release, err := r.agentClient(ctx, cmd.Bool("local"))
		if err != nil {
			return err
		}
		defer release()
		opts.Action = client.AddTrack
	}

	w := scanner.NewWatcher(doc, opts)
	entries := toEntries(w.Pass())
	r.logger.Info("scan complete", "source", src, "tracks", len(entries))

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(path, format, entries); err != nil {
			return err
		}
		r.writePlain("✓ Wrote %d tracks to %s\n", len(entries), path)
	} else {
		data, err := formatter.Candidates(format, entries)
		if err != nil {
			return err
		}
		if err := r.writePlain("%s", data); err != nil {
			return err
		}
	}

	var failed int
	for _, i := range indexes {
		if err := r.trigger(ctx, w.Tracker(), i); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tracks could not be added", failed, len(indexes))
	}
	return nil
}

// trigger runs attachment i and reports the outcome on the output.
func (r *Runner) trigger(ctx context.Context, tracker *scanner.Tracker, i int) error {
	a, ok := tracker.Get(i)
	if !ok {
		r.writePlain("✗ #%d: no such entry\n", i)
		return fmt.Errorf("%w: entry %d", shared.ErrInvalidArgument, i)
	}

	result, err := a.Trigger(ctx)
	if err != nil {
		msg := err.Error()
		var remote *bus.RemoteError
		if errors.As(err, &remote) {
			msg = remote.Message
		}
		r.writePlain("✗ #%d %s: %s\n", i, a.Track.TrackName, msg)
		return err
	}

	r.writePlain("✓ #%d added %s by %s (%s)\n", i, result.MatchedTrackName,
		strings.Join(result.MatchedArtistNames, ", "), result.MatchedTrackURI)
	return nil
}

// Watch keeps a document scanned and adds entries as their numbers are typed.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	src := cmd.StringArg("source")
	if src == "" {
		return fmt.Errorf("%w: file or URL to watch", shared.ErrMissingArgument)
	}

	client, release, err := r.agentClient(ctx, cmd.Bool("local"))
	if err != nil {
		return err
	}
	defer release()

	doc, err := scanner.Load(ctx, src, r.httpClient)
	if err != nil {
		return err
	}

	// Listings and add results arrive from different goroutines; each line is one Write.
	out := r.output
	r.output = &lockedWriter{w: out}
	defer func() { r.output = out }()
	logger := shared.WithLogger(r.logger, "source", src)

	w := scanner.NewWatcher(doc, scanner.WatcherOpts{
		Window: r.config.Scanner.Quiescence(),
		Action: client.AddTrack,
		Logger: logger,
		OnAttach: func(added []*scanner.Attachment) {
			data, _ := formatter.Candidates(formatter.Text, toEntries(added))
			r.writePlain("%s", data)
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	if !scanner.IsURL(src) {
		g.Go(func() error { return scanner.ReloadOnChange(gctx, doc, src, logger) })
	}
	g.Go(func() error {
		for line := range r.lines(gctx) {
			i, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				continue
			}
			r.trigger(gctx, w.Tracker(), i)
		}
		return nil
	})
	return g.Wait()
}

// lines yields input lines until ctx is done or the input ends.
//
// The reading goroutine may outlive ctx while blocked on a read.
func (r *Runner) lines(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r.input)
		for sc.Scan() {
			select {
			case out <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	filtered := make(chan string)
	go func() {
		defer close(filtered)
		for {
			select {
			case <-ctx.Done():
				return
			case line, ok := <-out:
				if !ok {
					<-ctx.Done()
					return
				}
				filtered <- line
			}
		}
	}()
	return filtered
}

func toEntries(attachments []*scanner.Attachment) []formatter.Entry {
	entries := make([]formatter.Entry, 0, len(attachments))
	for _, a := range attachments {
		entries = append(entries, formatter.Entry{Index: a.Index, Track: a.Track, Element: a.Element()})
	}
	return entries
}

// lockedWriter serializes writes to w.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
