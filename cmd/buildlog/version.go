package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"buildlog/internal/version"
)

const versionTagline = "every banner before its children"

var (
	versionFormat   string
	versionShowHash bool
	versionShowDate bool
	versionShowFull bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionShowHash, "hash", false, "include git commit hash")
	versionCmd.Flags().BoolVar(&versionShowDate, "date", false, "include build timestamp")
	versionCmd.Flags().BoolVar(&versionShowFull, "full", false, "show every recorded bit of build metadata")
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show buildlog build metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		showHash := versionShowHash || versionShowFull
		showDate := versionShowDate || versionShowFull
		info := version.Get()

		switch strings.ToLower(versionFormat) {
		case "json":
			if !showHash {
				info.GitCommit = ""
			}
			if !showDate {
				info.BuildDate = ""
			}
			return renderVersionJSON(cmd.OutOrStdout(), info)
		case "pretty":
			colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
			useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))
			renderVersionPretty(cmd.OutOrStdout(), info, useColor, showHash, showDate)
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
	},
}

func renderVersionPretty(out io.Writer, info version.Info, useColor, showHash, showDate bool) {
	v := info.Version
	if useColor {
		prev := color.NoColor
		color.NoColor = false
		v = version.Colored(v)
		color.NoColor = prev
	}
	fmt.Fprintf(out, "buildlog %s - %s\n", v, versionTagline)
	if showHash {
		fmt.Fprintf(out, "commit: %s\n", valueOrUnknown(info.GitCommit))
	}
	if showDate {
		fmt.Fprintf(out, "built:  %s\n", valueOrUnknown(info.BuildDate))
	}
}

func renderVersionJSON(out io.Writer, info version.Info) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
