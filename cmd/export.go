package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jsphweid/sightread/midi"
	"github.com/jsphweid/sightread/model"
)

var (
	exportFlags SessionFlags
	exportCount int
	exportOut   string
)

func init() {
	addSessionFlags(exportCmd, &exportFlags)
	exportCmd.Flags().IntVarP(&exportCount, "count", "n", 32, "number of notes")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "exercise.mid", "output MIDI file")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Writes a generated exercise to a MIDI file",
	Long: `Writes a generated exercise to a standard MIDI file as whole notes at
120 bpm. Replaying the file with the same --seed and settings scores every
note as correct.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		notes, err := Export(&exportFlags, exportCount, exportOut)
		cobra.CheckErr(err)
		fmt.Fprintf(os.Stdout, "wrote %d notes to %s (seed %d)\n", len(notes), exportOut, exportFlags.Seed)
	},
}

func Export(f *SessionFlags, n int, path string) ([]model.GeneratedNote, error) {
	if n < 1 {
		return nil, fmt.Errorf("count must be positive, got %d", n)
	}
	notes, err := f.Generator().GenerateN(f.KeySignature(), f.Range(), n)
	if err != nil {
		return nil, err
	}
	if err := midi.WriteExerciseFile(path, notes); err != nil {
		return nil, fmt.Errorf("could not write %s: %w", path, err)
	}
	return notes, nil
}
