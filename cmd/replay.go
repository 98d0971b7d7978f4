package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsphweid/sightread/exercise"
	"github.com/jsphweid/sightread/match"
	"github.com/jsphweid/sightread/midi"
	"github.com/jsphweid/sightread/model"
)

var (
	replayFlags    SessionFlags
	replayRealtime bool
	replayVerbose  bool
)

func init() {
	addSessionFlags(replayCmd, &replayFlags)
	replayCmd.Flags().BoolVar(&replayRealtime, "realtime", false, "wait between events as the file does")
	replayCmd.Flags().BoolVarP(&replayVerbose, "verbose", "v", false, "print every evaluated note")
	rootCmd.AddCommand(replayCmd)
}

var replayCmd = &cobra.Command{
	Use:   "replay <file.mid>",
	Short: "Plays a MIDI file into an exercise and prints the score",
	Long: `Plays the notes of a standard MIDI file into a fresh exercise, as if
they came from a keyboard, and prints how many were correct.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := mustApp()
		defer app.Close()

		stats, err := Replay(app, &replayFlags, args[0], ReplayOptions{
			Realtime: replayRealtime,
			Verbose:  replayVerbose,
			Out:      os.Stdout,
		})
		cobra.CheckErr(err)
		PrintStats(os.Stdout, stats)
	},
}

type ReplayOptions struct {
	Realtime bool
	Verbose  bool
	Out      io.Writer
}

func Replay(app *App, f *SessionFlags, path string, opts ReplayOptions) (exercise.Stats, error) {
	s, err := midi.ReadMidiFile(path)
	if err != nil {
		return exercise.Stats{}, err
	}
	events := midi.NoteEvents(s)
	app.Logger.Debug("replaying", "path", path, "events", len(events), "seed", f.ResolveSeed())

	ex := exercise.New(f.Generator(), app.Latency,
		exercise.WithLogger(app.Logger),
		exercise.WithMetrics(app.Metrics),
	)
	if _, err := ex.Start(f.KeySignature(), f.Range()); err != nil {
		return exercise.Stats{}, err
	}
	defer ex.Stop()

	var prev float64
	for _, ev := range events {
		if opts.Realtime && ev.Timestamp > prev {
			time.Sleep(time.Duration((ev.Timestamp - prev) * float64(time.Millisecond)))
		}
		prev = ev.Timestamp

		res, err := ex.HandleEvent(ev)
		if err != nil {
			return exercise.Stats{}, err
		}
		if opts.Verbose && opts.Out != nil && res.Outcome != match.Ignored {
			printResult(opts.Out, ev, res)
		}
	}
	return ex.Snapshot().Stats, nil
}

func printResult(out io.Writer, ev model.NoteEvent, res exercise.Result) {
	expected := "-"
	if res.Expected != nil {
		expected = res.Expected.String()
	}
	fmt.Fprintf(out, "%9.1fms  %-6s played %3d  expected %s\n", res.Timestamp, res.Outcome, ev.Pitch, expected)
}

func PrintStats(out io.Writer, stats exercise.Stats) {
	total := stats.Correct + stats.Miss
	accuracy := 0.0
	if total > 0 {
		accuracy = 100 * float64(stats.Correct) / float64(total)
	}
	fmt.Fprintf(out, "correct %d  miss %d  accuracy %.1f%%\n", stats.Correct, stats.Miss, accuracy)
}
