package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/tracklift/internal/bus"
	"github.com/desertthunder/tracklift/internal/repositories"
	"github.com/desertthunder/tracklift/internal/server"
	"github.com/desertthunder/tracklift/internal/services"
	"github.com/desertthunder/tracklift/internal/session"
	"github.com/desertthunder/tracklift/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the backend until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if port := cmd.Int("port"); port > 0 {
		r.config.Server.Port = port
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	handler, err := r.backend(db)
	if err != nil {
		return err
	}

	addr := r.config.Server.Addr()
	r.logger.Info("backend listening", "addr", addr, "login", fmt.Sprintf("http://%s/login", addr))
	return r.listen(ctx, addr, handler)
}

// backend wires the session broker, catalog client, matcher and history into the HTTP API.
func (r *Runner) backend(db *sql.DB) (http.Handler, error) {
	oauthConfig, err := services.NewSpotifyOAuthConfig(r.config.Credentials.Spotify.Map())
	if err != nil {
		return nil, fmt.Errorf("spotify credentials: %w", err)
	}

	broker := session.NewBroker(session.Options{
		Config:     oauthConfig,
		HTTPClient: r.httpClient,
		Logger:     r.logger.WithPrefix("session"),
	})
	spotify := services.NewSpotifyService(broker, r.spotifyAPI, r.httpClient)
	matcher := tasks.NewMatcher(spotify, tasks.MatcherOpts{
		DefaultPlaylistID: r.config.Server.DefaultPlaylistID,
		RateLimit:         r.config.Matcher.RateLimit,
		Logger:            r.logger,
	})

	api := server.NewAPI(server.APIOpts{
		Broker:  broker,
		Profile: spotify,
		Adder:   matcher,
		History: repositories.NewHistoryRepository(db),
		Logger:  r.logger.WithPrefix("http"),
	})
	return server.NewRouter(api), nil
}

// Agent runs the agent's bus endpoint until interrupted.
func (r *Runner) Agent(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger.WithPrefix("http")))
	router.Handle(http.MethodGet, "/bus", bus.WebSocketHandler(ctx, r.newAgent(db), r.logger))

	r.logger.Info("agent listening", "bus", r.config.Agent.BusURL())
	return r.listen(ctx, r.config.Agent.Addr(), router)
}

// listen serves h on addr and shuts down gracefully once ctx is done.
func (r *Runner) listen(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		r.logger.Info("shutting down", "addr", addr)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
