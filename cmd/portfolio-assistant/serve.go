package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/comigor/portfolio-assistant/internal/logger"
	"github.com/comigor/portfolio-assistant/internal/mcpserver"
	"github.com/comigor/portfolio-assistant/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	a, err := newApp(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	mcpSrv := mcpserver.New(mcpserver.Deps{Sessions: a.sessions, Profiles: a.profiles, Version: version})
	handler := server.New(server.Deps{
		Profiles:    a.profiles,
		Sessions:    a.sessions,
		Remote:      a.remote,
		Voice:       a.voice,
		Transcripts: a.transcripts,
		MCP:         mcpserver.Handler(mcpSrv),
		AdminToken:  a.cfg.Server.AdminToken,
		SampleRate:  a.cfg.Voice.SampleRate,
	})

	srv := newHTTPServer(ctx, a.cfg.Addr(), handler)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.L.Info("starting server", "address", srv.Addr, "provider", a.remote.Provider(), "remote", a.remote.Available(), "voice", a.voice.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.sessions.Run(gCtx, a.cfg.Chat.SweepInterval, a.cfg.Chat.SessionTTL)
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.L.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newHTTPServer keeps ctx values in request contexts but not its
// cancellation, so Shutdown can drain in-flight replies.
func newHTTPServer(ctx context.Context, addr string, handler http.Handler) *http.Server {
	base := context.WithoutCancel(ctx)
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return base
		},
	}
}
