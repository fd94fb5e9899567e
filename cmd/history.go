package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tracklift/internal/formatter"
	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/repositories"
	"github.com/desertthunder/tracklift/internal/shared"
	"github.com/urfave/cli/v3"
)

const dateLayout = "2006-01-02"

// HistoryList prints the plays recorded on a date (default today).
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	date := cmd.StringArg("date")
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return fmt.Errorf("%w: date must look like YYYY-MM-DD, got %q", shared.ErrInvalidArgument, date)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	songs, err := repositories.NewHistoryRepository(db).SongsByDate(ctx, date)
	if err != nil {
		return err
	}

	data, err := formatter.History(format, songs)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// HistoryAdd records a single play.
func (r *Runner) HistoryAdd(ctx context.Context, cmd *cli.Command) error {
	song := models.PlayedSong{
		Artist:    shared.NormalizeText(cmd.String("artist")),
		SongTitle: shared.NormalizeText(cmd.String("title")),
		Album:     cmd.String("album"),
		ImageURL:  cmd.String("image-url"),
	}
	if song.Artist == "" || song.SongTitle == "" {
		return fmt.Errorf("%w: --artist and --title must not be blank", shared.ErrMissingArgument)
	}

	playedAt := time.Now().UTC()
	if at := cmd.String("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return fmt.Errorf("%w: --at must be RFC3339: %v", shared.ErrInvalidArgument, err)
		}
		playedAt = t.UTC()
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.NewHistoryRepository(db).RecordPlay(ctx, song, playedAt); err != nil {
		return err
	}

	r.logger.Info("play recorded", "artist", song.Artist, "title", song.SongTitle)
	return r.writePlain("✓ Recorded %s by %s at %s\n", song.SongTitle, song.Artist, playedAt.Format(time.RFC3339))
}
