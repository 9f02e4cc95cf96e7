package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"buildlog/internal/event"
)

// ErrInvalidParameter is returned for unknown keys or malformed values.
var ErrInvalidParameter = errors.New("invalid logger parameter")

// ParseParameters applies a ';'-separated list of key[=value] items to p.
// Keys are case-insensitive; empty items are ignored.
func ParseParameters(s string, p *Parameters) error {
	fold := cases.Fold()
	for _, raw := range strings.Split(s, ";") {
		item := strings.TrimSpace(raw)
		if item == "" {
			continue
		}
		key, value, hasValue := strings.Cut(item, "=")
		key = fold.String(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if err := apply(p, key, value, hasValue); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidParameter, item, err)
		}
	}
	return nil
}

func apply(p *Parameters, key, value string, hasValue bool) error {
	flag := func() (bool, error) {
		if !hasValue {
			return true, nil
		}
		return strconv.ParseBool(value)
	}

	switch key {
	case "verbosity", "v":
		v, err := event.ParseVerbosity(value)
		if err != nil {
			return err
		}
		p.Verbosity = v
	case "errorsonly":
		b, err := flag()
		if err != nil {
			return err
		}
		p.ShowOnlyErrors = b
	case "warningsonly":
		b, err := flag()
		if err != nil {
			return err
		}
		p.ShowOnlyWarnings = b
	case "summary":
		p.ShowSummary = Bool(true)
	case "nosummary":
		p.ShowSummary = Bool(false)
	case "performancesummary":
		p.ShowPerfSummary = true
	case "showeventid":
		p.ShowEventID = Bool(true)
	case "noitemandpropertylist":
		p.ShowItemAndPropertyList = false
	case "showcommandline":
		b, err := flag()
		if err != nil {
			return err
		}
		p.ShowCommandLine = b
	case "showtimestamp":
		p.ShowTimestamp = true
	case "showenvironment":
		p.ShowEnvironment = true
	case "showprojectfile":
		b, err := flag()
		if err != nil {
			return err
		}
		p.ShowProjectFile = b
	case "disableconsolecolor":
		p.ColorMode = ColorNone
	case "forceconsolecolor", "ansi":
		p.ColorMode = ColorANSI
	case "teamcity":
		p.TeamCityMode = TeamCitySupportHierarchy
		p.ColorMode = ColorTeamCity
		p.ColorThemeMode = ThemeTeamCity
		p.StatisticsMode = StatisticsTeamCity
	case "colortheme":
		switch cases.Fold().String(value) {
		case "default":
			p.ColorThemeMode = ThemeDefault
		case "teamcity":
			p.ColorThemeMode = ThemeTeamCity
		default:
			return fmt.Errorf("unknown color theme %q", value)
		}
	case "statistics":
		switch cases.Fold().String(value) {
		case "default", "":
			p.StatisticsMode = StatisticsDefault
		case "teamcity":
			p.StatisticsMode = StatisticsTeamCity
		default:
			return fmt.Errorf("unknown statistics mode %q", value)
		}
	case "flowid":
		p.FlowID = value
	case "debug":
		p.Debug = true
	default:
		return errors.New("unknown key")
	}
	return nil
}
