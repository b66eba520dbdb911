package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"textpredict/internal/backend"
	"textpredict/internal/config"
	"textpredict/internal/session"
)

// options is shared by every command. flags holds what was given on the
// command line (or its env default); cfg is the resolved configuration.
type options struct {
	configPath string
	flags      config.Config
	cfg        config.Config
	// logFormat is the format asked for explicitly, "" when left to the command
	logFormat string
}

func newRootCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "textpredict",
		Short: "Run a sentence through an on-device text model",
		Long: `textpredict loads a sharded text model bundle once, then predicts on
whatever sentence you type and shows the raw output tensor.

Run without arguments to start the interactive screen.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.resolve()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, o)
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&o.configPath, "config", os.Getenv("TEXTPREDICT_CONFIG"), "Path to a .yaml, .json or .toml config file")
	f.StringVar(&o.flags.ModelDir, "model-dir", os.Getenv("TEXTPREDICT_MODEL_DIR"), "Directory holding the model bundle (default "+config.DefaultModelDir+")")
	f.StringVar(&o.flags.Manifest, "manifest", "", "Manifest file name inside the model dir (default model.json)")
	f.StringVar(&o.flags.Backend, "backend", "", "Compute backend: "+strings.Join(backend.Backends(), ", ")+" (default "+backend.CPU+")")
	f.StringVar(&o.flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error, disabled (default info)")
	f.StringVar(&o.flags.LogFormat, "log-format", "", "Log format: console or json")

	cmd.AddCommand(
		newTUICmd(o),
		newServeCmd(o),
		newPredictCmd(o),
		newModelsCmd(o),
		newBackendsCmd(o),
	)
	return cmd
}

// resolve loads the config file, lays flag values over it and fills defaults.
func (o *options) resolve() error {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	overlay(&cfg.ModelDir, o.flags.ModelDir)
	overlay(&cfg.Manifest, o.flags.Manifest)
	overlay(&cfg.Backend, o.flags.Backend)
	overlay(&cfg.LogLevel, o.flags.LogLevel)
	overlay(&cfg.LogFormat, o.flags.LogFormat)
	o.logFormat = cfg.LogFormat
	cfg.ApplyDefaults()
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	switch o.logFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", o.logFormat)
	}
	o.cfg = cfg
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// newLogger builds the root logger writing to w. fallback is the format used
// when neither the flag nor the config named one.
func (o *options) newLogger(w io.Writer, fallback string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(o.cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	format := o.logFormat
	if format == "" {
		format = fallback
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// newSession builds a session over the configured backend and model dir.
func (o *options) newSession(log zerolog.Logger, pub session.EventPublisher) (*session.App, error) {
	rt, err := backend.New(o.cfg.Backend, o.cfg.BackendOptions())
	if err != nil {
		return nil, err
	}
	log.Debug().Str("backend", o.cfg.Backend).Str("model_dir", o.cfg.ModelDir).Str("manifest", o.cfg.Manifest).Msg("session configured")
	return session.New(session.Config{
		Runtime:      rt,
		BundleDir:    o.cfg.ModelDir,
		ManifestPath: o.cfg.Manifest,
		Logger:       &log,
		Publisher:    pub,
	}), nil
}
