package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"buildlog/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "buildlog",
	Short:         "Render build event logs",
	Long:          `buildlog replays recorded build events and renders them as a nested, colored build log`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.Version = version.Get().Version

	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(versionCmd)

	addPersistentFlags(rootCmd)
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	cmd.PersistentFlags().String("verbosity", "", "log verbosity (quiet|minimal|normal|detailed|diagnostic)")
	cmd.PersistentFlags().String("parameters", "", "';'-separated logger parameters")
	cmd.PersistentFlags().String("config", "", "logger config file (.toml, .yaml)")
}

// main executes the root command. Errors are printed to stderr and the
// process exits with status 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		errColor := color.New(color.FgRed, color.Bold)
		if !isTerminal(os.Stderr) {
			errColor.DisableColor()
		}
		fmt.Fprintln(os.Stderr, errColor.Sprint("error: ")+err.Error())
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
