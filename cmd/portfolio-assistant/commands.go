package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comigor/portfolio-assistant/internal/llm"
	"github.com/comigor/portfolio-assistant/internal/voice"
)

// --- ask ---

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		asJSON  bool
		speakTo string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question through the chat pipeline",
		Long: `Ask one question through the same pipeline the server uses.

Examples:
  portfolio-assistant ask "What are your skills?"
  portfolio-assistant ask --json "Show me your projects"
  portfolio-assistant ask --speak reply.wav "Tell me about yourself"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// replies are only synthesized when someone will hear them
			cfg := *opts.cfg
			cfg.Voice.AutoSpeak = speakTo != ""
			a, err := newApp(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := a.sessions.Create()
			if err != nil {
				return err
			}
			defer a.sessions.Delete(sess.ID())

			ex, err := sess.Submit(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			if clip, ok := sess.Audio(ex.Reply.AudioRef); ok {
				if err := clip.Play(cmd.Context(), voice.FilePlayer{Path: speakTo}); err != nil {
					return fmt.Errorf("writing %s: %w", speakTo, err)
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ex)
			}
			fmt.Fprintln(out, ex.Reply.Content)
			if ex.VoiceNotice != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), ex.VoiceNotice)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full exchange as JSON")
	cmd.Flags().StringVar(&speakTo, "speak", "", "also synthesize the reply to this WAV file")
	return cmd
}

// --- speak ---

func newSpeakCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Synthesize text to a WAV file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge := voice.New(opts.cfg.Voice)
			clip, err := bridge.Synthesize(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if output == "-" {
				return clip.Play(cmd.Context(), voice.WriterPlayer{W: cmd.OutOrStdout()})
			}
			if err := clip.Play(cmd.Context(), voice.FilePlayer{Path: output}); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d bytes to %s\n", len(clip.WAV), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "speech.wav", "output file, or - for stdout")
	return cmd
}

// --- transcribe ---

func newTranscribeCmd(opts *rootOptions) *cobra.Command {
	var rate int
	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe a WAV (or raw 16-bit PCM) recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}
			if rate <= 0 {
				rate = opts.cfg.Voice.SampleRate
			}
			text, err := voice.New(opts.cfg.Voice).Transcribe(cmd.Context(), voice.EnsureWAV(raw, rate))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().IntVar(&rate, "rate", 0, "sample rate of raw PCM input (default from config)")
	return cmd
}

// --- check ---

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report provider availability and check the voice API",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			remote, err := llm.New(cmd.Context(), opts.cfg.LLM)
			if err != nil {
				return err
			}
			if remote.Available() {
				fmt.Fprintf(out, "model:  %s (configured)\n", remote.Provider())
			} else {
				fmt.Fprintf(out, "model:  %s (no credential, keyword fallback only)\n", remote.Provider())
			}

			bridge := voice.New(opts.cfg.Voice)
			switch err := bridge.Check(cmd.Context()); {
			case errors.Is(err, voice.ErrUnavailable):
				fmt.Fprintln(out, "voice:  disabled")
			case err != nil:
				fmt.Fprintf(out, "voice:  error: %v\n", err)
				return fmt.Errorf("voice check failed: %w", err)
			default:
				fmt.Fprintln(out, "voice:  ok")
			}
			return nil
		},
	}
}

// --- prompt ---

func newPromptCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Print the system prompt built from the configured profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintln(cmd.OutOrStdout(), a.profiles.Prompt())
			return nil
		},
	}
}
