package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jsphweid/sightread/latency"
)

func init() {
	latencyCmd.AddCommand(latencyGetCmd, latencySetCmd, latencyEnableCmd, latencyDisableCmd, latencyResetCmd)
	rootCmd.AddCommand(latencyCmd)
}

var latencyCmd = &cobra.Command{
	Use:   "latency",
	Short: "Shows or changes MIDI latency compensation",
	Long: `Shows or changes MIDI latency compensation. The offset is subtracted
from every event timestamp and is clamped to the configured bounds.`,
}

var latencyGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Prints the current settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withLatency(func(c *latency.Compensator) {})
	},
}

var latencySetCmd = &cobra.Command{
	Use:   "set <ms>",
	Short: "Sets the offset in milliseconds",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ms, err := strconv.ParseFloat(args[0], 64)
		cobra.CheckErr(err)
		withLatency(func(c *latency.Compensator) { c.SetOffsetMs(ms) })
	},
}

var latencyEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Turns compensation on",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withLatency(func(c *latency.Compensator) { c.SetEnabled(true) })
	},
}

var latencyDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Turns compensation off",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withLatency(func(c *latency.Compensator) { c.SetEnabled(false) })
	},
}

var latencyResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restores the defaults",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withLatency(func(c *latency.Compensator) { c.Reset() })
	},
}

func withLatency(f func(*latency.Compensator)) {
	app := mustApp()
	defer app.Close()
	f(app.Latency)
	cobra.CheckErr(PrintLatency(os.Stdout, app.Latency))
}

func PrintLatency(out io.Writer, c *latency.Compensator) error {
	data, err := json.MarshalIndent(c.Config(), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
