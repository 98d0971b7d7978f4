package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsphweid/sightread/constants"
	"github.com/jsphweid/sightread/latency"
	"github.com/jsphweid/sightread/logging"
	"github.com/jsphweid/sightread/metrics"
)

// Config is the ambient setup shared by every command. Env vars seed the
// defaults and persistent flags override them.
type Config struct {
	Store          string
	StoreDir       string
	DynamoEndpoint string
	DynamoTable    string
	DynamoRegion   string
	SentryDSN      string
	Debug          bool
	LogFile        string
}

var config Config

var rootCmd = &cobra.Command{
	Use:   "sightread",
	Short: "Sight-reading practice",
	Long: `Sight-reading practice for MIDI keyboards. Generates notes in a key,
listens to what you play and keeps score.`,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&config.Store, "store", constants.GetStoreKind(), "where latency settings live: file, dynamo or memory")
	flags.StringVar(&config.StoreDir, "store-dir", constants.GetStoreDir(), "directory for the file store")
	flags.StringVar(&config.DynamoEndpoint, "dynamo-endpoint", constants.GetDynamoEndpoint(), "DynamoDB endpoint")
	flags.StringVar(&config.DynamoTable, "dynamo-table", constants.GetDynamoTable(), "DynamoDB table")
	flags.StringVar(&config.DynamoRegion, "dynamo-region", constants.GetDynamoRegion(), "DynamoDB region")
	flags.StringVar(&config.SentryDSN, "sentry-dsn", constants.GetSentryDSN(), "Sentry DSN, empty disables reporting")
	flags.BoolVar(&config.Debug, "debug", constants.GetDebug(), "debug logging")
	flags.StringVar(&config.LogFile, "log-file", "", "write logs to this file instead of stderr")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

// App holds what commands build from Config.
type App struct {
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	Latency *latency.Compensator

	closers []func() error
}

func (a *App) Close() {
	a.Metrics.Flush()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed", "err", err)
		}
	}
}

func NewApp(c Config) (*App, error) {
	app := &App{}

	if c.LogFile != "" {
		logger, closeLog, err := logging.NewFile(c.LogFile, c.Debug)
		if err != nil {
			return nil, err
		}
		app.Logger = logger
		app.closers = append(app.closers, closeLog)
	} else {
		app.Logger = logging.New(os.Stderr, c.Debug)
	}

	app.Metrics = metrics.NewDisabled()
	if c.SentryDSN != "" {
		m, err := metrics.Init(c.SentryDSN, "production")
		if err != nil {
			app.Logger.Warn("sentry disabled", "err", err)
		} else {
			app.Metrics = m
		}
	}

	store, err := NewStore(c)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Latency = latency.New(store, latency.WithLogger(app.Logger), latency.WithMetrics(app.Metrics))
	return app, nil
}

func NewStore(c Config) (latency.Store, error) {
	switch c.Store {
	case "file":
		return latency.NewFileStore(c.StoreDir), nil
	case "dynamo":
		store, err := latency.NewDynamoStore(c.DynamoEndpoint, c.DynamoRegion, c.DynamoTable)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return latency.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", c.Store)
	}
}

func mustApp() *App {
	app, err := NewApp(config)
	cobra.CheckErr(err)
	return app
}
