package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jsphweid/sightread/generator"
	"github.com/jsphweid/sightread/model"
)

// SessionFlags are the exercise settings shared by practice, serve, export
// and replay.
type SessionFlags struct {
	Key       string
	Low       string
	High      string
	Seed      int64
	NoRepeats bool
}

func addSessionFlags(cmd *cobra.Command, f *SessionFlags) {
	cmd.Flags().StringVarP(&f.Key, "key", "k", string(model.KeyC), "key signature")
	cmd.Flags().StringVar(&f.Low, "low", "C4", "lowest note")
	cmd.Flags().StringVar(&f.High, "high", "C5", "highest note")
	cmd.Flags().Int64Var(&f.Seed, "seed", 0, "random seed, 0 picks one from the clock")
	cmd.Flags().BoolVar(&f.NoRepeats, "no-repeats", false, "never generate the same note twice in a row")
}

func (f *SessionFlags) KeySignature() model.KeySignature {
	return model.KeySignature(f.Key)
}

func (f *SessionFlags) Range() model.NoteRange {
	return model.NoteRange{Low: model.NoteName(f.Low), High: model.NoteName(f.High)}
}

// ResolveSeed replaces a zero seed with one from the clock and returns it.
func (f *SessionFlags) ResolveSeed() int64 {
	if f.Seed == 0 {
		f.Seed = time.Now().UnixNano()
	}
	return f.Seed
}

// Generator builds the note source. The same seed and settings always yield
// the same sequence, which is what lets replay score an exported file.
func (f *SessionFlags) Generator() *generator.Generator {
	opts := []generator.Option{generator.WithSeed(f.ResolveSeed())}
	if f.NoRepeats {
		opts = append(opts, generator.WithoutRepeats())
	}
	return generator.New(opts...)
}
