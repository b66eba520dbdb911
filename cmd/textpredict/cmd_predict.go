package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	errModelNotReady    = errors.New("model not ready (see log output)")
	errPredictionFailed = errors.New("prediction produced no result (see log output)")
)

func newPredictCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "predict <text>...",
		Short: "Mount the model, predict once and print the result",
		Long: `Runs one full lifecycle: initialize the backend, load the bundle, set the
input to the arguments joined by spaces and predict. Prints the four status
lines followed by the result tensor.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := o.newLogger(cmd.ErrOrStderr(), "console")
			app, err := o.newSession(log, nil)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			app.Mount(ctx)
			app.SetInput(strings.Join(args, " "))
			app.Predict(ctx)

			snap := app.Snapshot()
			out := cmd.OutOrStdout()
			for _, l := range snap.StatusLines() {
				fmt.Fprintln(out, l)
			}
			if !snap.PredictorReady {
				return errModelNotReady
			}
			if !snap.ResultReady {
				return errPredictionFailed
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, snap.ResultText())
			return nil
		},
	}
}
