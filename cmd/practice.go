package cmd

import (
	"errors"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver

	"github.com/jsphweid/sightread/constants"
	"github.com/jsphweid/sightread/exercise"
	"github.com/jsphweid/sightread/midi"
	"github.com/jsphweid/sightread/model"
	"github.com/jsphweid/sightread/tui"
)

var (
	practiceFlags SessionFlags
	practiceInput string
)

func init() {
	addSessionFlags(practiceCmd, &practiceFlags)
	practiceCmd.Flags().StringVarP(&practiceInput, "input", "i", "", "MIDI input port, matched by name")
	rootCmd.AddCommand(practiceCmd)
}

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Practices sight-reading from a MIDI keyboard",
	Long: `Practices sight-reading from a MIDI keyboard in the terminal. Logs go to
a file since the terminal belongs to the UI.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := config
		if c.LogFile == "" {
			c.LogFile = filepath.Join(constants.GetStoreDir(), "practice.log")
		}
		app, err := NewApp(c)
		cobra.CheckErr(err)
		defer app.Close()

		cobra.CheckErr(practice(app, &practiceFlags, practiceInput))
	},
}

func practice(app *App, f *SessionFlags, inputName string) error {
	defer gomidi.CloseDriver()

	in, err := midi.OpenInput(inputName)
	if err != nil {
		app.Logger.Error("no MIDI input", "wanted", inputName, "available", midi.InputNames(), "err", err)
		return err
	}

	updates := make(chan struct{}, 1)
	ex := exercise.New(f.Generator(), app.Latency,
		exercise.WithLogger(app.Logger),
		exercise.WithMetrics(app.Metrics),
		exercise.WithOnUpdate(tui.Notifier(updates)),
	)

	stop, err := midi.Listen(in, func(ev model.NoteEvent) {
		if _, err := ex.HandleEvent(ev); err != nil && !errors.Is(err, exercise.ErrNotActive) {
			app.Logger.Warn("event rejected", "err", err)
		}
	})
	if err != nil {
		return err
	}
	defer stop()

	m := tui.NewModel(ex, updates, f.KeySignature(), f.Range(), in.String())
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
