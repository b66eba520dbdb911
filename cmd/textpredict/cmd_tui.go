package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"textpredict/internal/session"
	"textpredict/internal/tui"
)

func newTUICmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive screen (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, o)
		},
	}
}

// runTUI shows the screen. Logs go to a file so they do not tear the display.
func runTUI(cmd *cobra.Command, o *options) error {
	path, err := tuiLogPath(o.cfg.LogFile)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	log := o.newLogger(f, "json")

	pub := session.NewChannelPublisher(64)
	app, err := o.newSession(log, pub)
	if err != nil {
		return err
	}
	defer app.Close()

	log.Info().Str("log_file", path).Msg("starting interactive screen")
	if err := tui.Run(cmd.Context(), app, pub.C()); err != nil {
		return err
	}
	if n := pub.Dropped(); n > 0 {
		log.Debug().Uint64("dropped_events", n).Msg("screen fell behind on events")
	}
	return nil
}

// tuiLogPath returns configured, or textpredict.log under the user cache dir.
func tuiLogPath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	dir = filepath.Join(dir, "textpredict")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	return filepath.Join(dir, "textpredict.log"), nil
}
