package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"buildlog/internal/config"
	"buildlog/internal/event"
	"buildlog/internal/trace"
)

// settings is the logger configuration resolved from the config file and flags.
type settings struct {
	params           config.Parameters
	parameters       string
	structuredPath   string
	structuredFormat trace.Format
}

// resolveSettings applies, in order, the config file, --verbosity and --color.
// The parameter string is applied last by the node logger itself.
func resolveSettings(cmd *cobra.Command) (settings, error) {
	root := cmd.Root()
	s := settings{params: config.Default()}

	cfgPath, err := root.PersistentFlags().GetString("config")
	if err != nil {
		return s, fmt.Errorf("failed to get config flag: %w", err)
	}
	formatName := ""
	if cfgPath != "" {
		fc, err := config.LoadFile(cfgPath)
		if err != nil {
			return s, err
		}
		if err := fc.Apply(&s.params); err != nil {
			return s, fmt.Errorf("%s: %w", cfgPath, err)
		}
		s.structuredPath = fc.Structured.Path
		formatName = fc.Structured.Format
	}

	verbosity, err := root.PersistentFlags().GetString("verbosity")
	if err != nil {
		return s, fmt.Errorf("failed to get verbosity flag: %w", err)
	}
	if verbosity != "" {
		v, err := event.ParseVerbosity(verbosity)
		if err != nil {
			return s, err
		}
		s.params.Verbosity = v
	}

	colorFlag, err := root.PersistentFlags().GetString("color")
	if err != nil {
		return s, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch strings.ToLower(colorFlag) {
	case "auto":
	case "on":
		s.params.ColorMode = config.ColorANSI
	case "off":
		s.params.ColorMode = config.ColorNone
	default:
		return s, fmt.Errorf("invalid color %q (expected: auto|on|off)", colorFlag)
	}

	s.parameters, err = root.PersistentFlags().GetString("parameters")
	if err != nil {
		return s, fmt.Errorf("failed to get parameters flag: %w", err)
	}

	if f := cmd.Flags().Lookup("structured"); f != nil && f.Changed {
		s.structuredPath = f.Value.String()
	}
	if f := cmd.Flags().Lookup("structured-format"); f != nil && f.Changed {
		formatName = f.Value.String()
	}
	s.structuredFormat, err = trace.ParseFormat(formatName)
	if err != nil {
		return s, err
	}
	return s, nil
}
