package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"textpredict/internal/config"
	"textpredict/internal/httpapi"
)

type serveOptions struct {
	addr           string
	corsOrigins    string
	predictTimeout time.Duration
}

func newServeCmd(o *options) *cobra.Command {
	so := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session over HTTP/JSON",
		Long: `Mounts the session in the background and serves it over HTTP:
  GET  /status    readiness indicators
  GET  /input     held text
  PUT  /input     replace the held text
  POST /predict   run a prediction on the held text
  GET  /result    last prediction
plus /healthz, /readyz and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if so.addr != "" {
				o.cfg.Addr = so.addr
			}
			if so.corsOrigins != "" {
				o.cfg.CORSEnabled = true
				o.cfg.CORSOrigins = splitCSV(so.corsOrigins)
			}
			if cmd.Flags().Changed("predict-timeout") {
				o.cfg.PredictTimeout = config.Duration(so.predictTimeout)
			}
			return runServe(cmd.Context(), o)
		},
	}
	cmd.Flags().StringVar(&so.addr, "addr", os.Getenv("TEXTPREDICT_ADDR"), "HTTP listen address (default "+config.DefaultAddr+")")
	cmd.Flags().StringVar(&so.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins; enables CORS")
	cmd.Flags().DurationVar(&so.predictTimeout, "predict-timeout", 0, "Upper bound for one POST /predict (0 = none)")
	return cmd
}

func runServe(ctx context.Context, o *options) error {
	log := o.newLogger(os.Stderr, "json")
	app, err := o.newSession(log, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	httpapi.SetLogger(log)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(o.cfg.MaxBodyBytes)
	httpapi.SetPredictTimeout(o.cfg.PredictTimeout.Std())
	httpapi.SetCORSOptions(o.cfg.CORSEnabled, o.cfg.CORSOrigins, nil, nil)

	ln, err := net.Listen("tcp", o.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", o.cfg.Addr, err)
	}
	srv := &http.Server{
		Handler:           httpapi.NewMux(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Mount(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", ln.Addr().String()).Str("model_dir", o.cfg.ModelDir).Msg("textpredict listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown error")
		}
		return nil
	})
	return g.Wait()
}
