package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tracklift/internal/shared"
	"github.com/desertthunder/tracklift/internal/ui"
	"github.com/urfave/cli/v3"
)

// Popup launches the settings and session panel.
func (r *Runner) Popup(ctx context.Context, cmd *cli.Command) error {
	path, err := shared.StatePath("popup.log")
	if err != nil {
		return fmt.Errorf("failed to resolve log path: %w", err)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	client, release, err := r.agentClient(ctx, cmd.Bool("local"))
	if err != nil {
		return err
	}
	defer release()

	if err := ui.Run(ctx, client); err != nil {
		return fmt.Errorf("error running popup: %w", err)
	}
	return nil
}
