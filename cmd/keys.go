package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jsphweid/sightread/theory"
)

func init() {
	rootCmd.AddCommand(keysCmd)
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Lists supported key signatures",
	Long:  `Lists supported key signatures with their sharps or flats.`,
	Run: func(cmd *cobra.Command, args []string) {
		cobra.CheckErr(PrintKeys(os.Stdout))
	},
}

func PrintKeys(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tACCIDENTALS\tALTERED")
	for _, key := range theory.Keys {
		info, err := theory.KeySignatureInfo(key)
		if err != nil {
			return err
		}
		alterations, err := theory.Alterations(key)
		if err != nil {
			return err
		}

		altered := make([]string, 0, len(info.AlteredLetters))
		for _, l := range info.AlteredLetters {
			altered = append(altered, string(l)+string(alterations[l]))
		}
		kind := "flats"
		if info.Sharps {
			kind = "sharps"
		}
		if info.AccidentalCount == 0 {
			kind = "-"
		}
		fmt.Fprintf(w, "%s\t%d %s\t%s\n", key, info.AccidentalCount, kind, strings.Join(altered, " "))
	}
	return w.Flush()
}
