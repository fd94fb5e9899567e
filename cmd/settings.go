package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tracklift/internal/models"
	"github.com/desertthunder/tracklift/internal/shared"
	"github.com/urfave/cli/v3"
)

// SettingsGet prints the agent's effective settings.
func (r *Runner) SettingsGet(ctx context.Context, cmd *cli.Command) error {
	client, release, err := r.agentClient(ctx, cmd.Bool("local"))
	if err != nil {
		return err
	}
	defer release()

	s, err := client.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(s, true)
	}
	return r.printSettings(s)
}

// SettingsSet saves the given fields and prints the merged result.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	var patch models.SettingsPatch
	if cmd.IsSet("backend-url") {
		v := cmd.String("backend-url")
		patch.BackendBaseURL = &v
	}
	if cmd.IsSet("playlist") {
		v := cmd.String("playlist")
		patch.PlaylistID = &v
	}
	if patch.BackendBaseURL == nil && patch.PlaylistID == nil {
		return fmt.Errorf("%w: pass --backend-url or --playlist", shared.ErrMissingArgument)
	}

	client, release, err := r.agentClient(ctx, cmd.Bool("local"))
	if err != nil {
		return err
	}
	defer release()

	s, err := client.SetSettings(ctx, patch)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	r.writePlain("✓ Settings saved\n")
	return r.printSettings(s)
}

func (r *Runner) printSettings(s models.Settings) error {
	playlist := s.PlaylistID
	if playlist == "" {
		playlist = "(not set)"
	}
	return r.writePlain("Backend:  %s\nPlaylist: %s\n", s.BackendBaseURL, playlist)
}
