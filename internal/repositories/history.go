package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/tracklift/internal/models"
)

// HistoryRepository reads and records station play history.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new [HistoryRepository] with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// SongsByDate returns every play on the given calendar date (YYYY-MM-DD), oldest first.
func (r *HistoryRepository) SongsByDate(ctx context.Context, date string) ([]models.PlayedSong, error) {
	query := `
		SELECT songs.artist, songs.song_title, COALESCE(songs.album, ''), COALESCE(songs.image_url, ''), play_history.played_at
		FROM songs
		JOIN play_history ON songs.id = play_history.song_id
		WHERE date(play_history.played_at) = ?
		ORDER BY play_history.played_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query play history: %w", err)
	}
	defer rows.Close()

	songs := []models.PlayedSong{}
	for rows.Next() {
		var song models.PlayedSong
		if err := rows.Scan(&song.Artist, &song.SongTitle, &song.Album, &song.ImageURL, &song.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating play history: %w", err)
	}

	return songs, nil
}

// RecordPlay stores a play of song at playedAt, reusing an existing song row with the same artist and title.
func (r *HistoryRepository) RecordPlay(ctx context.Context, song models.PlayedSong, playedAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var songID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM songs WHERE artist = ? AND song_title = ?",
		song.Artist, song.SongTitle,
	).Scan(&songID)

	switch {
	case err == sql.ErrNoRows:
		result, err := tx.ExecContext(ctx,
			"INSERT INTO songs (artist, song_title, album, image_url) VALUES (?, ?, ?, ?)",
			song.Artist, song.SongTitle, song.Album, song.ImageURL,
		)
		if err != nil {
			return fmt.Errorf("failed to insert song: %w", err)
		}
		if songID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read song id: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to query song: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO play_history (song_id, played_at) VALUES (?, ?)",
		songID, playedAt.UTC().Format("2006-01-02 15:04:05"),
	); err != nil {
		return fmt.Errorf("failed to insert play: %w", err)
	}

	return tx.Commit()
}
