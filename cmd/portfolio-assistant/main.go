package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/comigor/portfolio-assistant/internal/chat"
	"github.com/comigor/portfolio-assistant/internal/config"
	"github.com/comigor/portfolio-assistant/internal/fallback"
	"github.com/comigor/portfolio-assistant/internal/history"
	"github.com/comigor/portfolio-assistant/internal/llm"
	"github.com/comigor/portfolio-assistant/internal/logger"
	"github.com/comigor/portfolio-assistant/internal/profile"
	"github.com/comigor/portfolio-assistant/internal/voice"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "portfolio-assistant",
		Short:         "AI assistant that answers questions about a developer portfolio",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				path = os.Getenv("CONFIG_PATH")
			}
			cfg, err := config.LoadFile(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			level := cfg.Log.Level
			if opts.logLevel != "" {
				level = opts.logLevel
			}
			logger.SetLevel(level)
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newSpeakCmd(opts),
		newTranscribeCmd(opts),
		newCheckCmd(opts),
		newPromptCmd(opts),
	)
	return root
}

// app is the wired pipeline shared by every command.
type app struct {
	cfg         *config.Config
	profiles    *profile.Store
	remote      llm.Client
	voice       *voice.Bridge
	transcripts *history.Store
	sessions    *chat.Manager
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	remote, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:         cfg,
		profiles:    profile.NewStore(cfg.ProfileOrDefault()),
		remote:      remote,
		voice:       voice.New(cfg.Voice),
		transcripts: history.Open(cfg.History.DSN),
	}
	responder := fallback.New()
	if cfg.Chat.GreetFallback {
		responder = fallback.WithGreetings()
	}
	a.sessions = chat.NewManager(chat.Deps{
		Profiles: a.profiles,
		Fallback: responder,
		Remote:   a.remote,
		Voice:    a.voice,
		Recorder: a.transcripts,
		Window:   cfg.Chat.HistoryWindow,
		Greeting: cfg.Chat.Greeting,
	})
	return a, nil
}

func (a *app) Close() error {
	return a.transcripts.Close()
}
