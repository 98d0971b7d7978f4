package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jsphweid/sightread/constants"
	"github.com/jsphweid/sightread/exercise"
	"github.com/jsphweid/sightread/server"
)

var (
	serveFlags SessionFlags
	serveAddr  string
)

func init() {
	serveCmd.Flags().Int64Var(&serveFlags.Seed, "seed", 0, "random seed, 0 picks one from the clock")
	serveCmd.Flags().BoolVar(&serveFlags.NoRepeats, "no-repeats", false, "never generate the same note twice in a row")
	serveCmd.Flags().StringVar(&serveAddr, "addr", constants.GetAddr(), "listen address")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the exercise over HTTP",
	Long:  `Serves the exercise over HTTP for a browser front end.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp()
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err := NewServer(app, &serveFlags).ListenAndServe(ctx, serveAddr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	},
}

// NewServer wires an exercise to the HTTP API. Key and range come from each
// POST /session, so only the generator settings are used here.
func NewServer(app *App, f *SessionFlags) *server.Server {
	ex := exercise.New(f.Generator(), app.Latency,
		exercise.WithLogger(app.Logger),
		exercise.WithMetrics(app.Metrics),
	)
	return server.New(ex, app.Logger)
}
