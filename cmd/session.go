package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tracklift/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// SessionStatus reports whether the backend holds a provider session.
func (r *Runner) SessionStatus(ctx context.Context, cmd *cli.Command) error {
	client, release, err := r.agentClient(ctx, cmd.Bool("local"))
	if err != nil {
		return err
	}
	defer release()

	status, err := client.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}
	return r.writePlain("%s\n", describeSession(status))
}

// SessionLogin asks the agent to start the provider login and prints the authorize URL.
func (r *Runner) SessionLogin(ctx context.Context, cmd *cli.Command) error {
	client, release, err := r.agentClient(ctx, cmd.Bool("local"))
	if err != nil {
		return err
	}
	defer release()

	started, err := client.StartLogin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start login: %w", err)
	}

	r.writePlain("Finish logging in in your browser. If it did not open, visit:\n\n  %s\n", started.AuthorizeURL)
	return nil
}

func describeSession(status models.SessionStatus) string {
	if !status.Authenticated {
		if status.Error == "" {
			return "✗ Not connected"
		}
		return "✗ Not connected: " + status.Error
	}

	name := "unknown user"
	if status.User != nil {
		name = status.User.DisplayName
		if name == "" {
			name = status.User.ID
		}
	}

	line := "✓ Connected as " + name
	if status.TokenExpiresAt != nil {
		line += ", token expires " + humanize.Time(time.UnixMilli(*status.TokenExpiresAt))
	}
	return line
}
