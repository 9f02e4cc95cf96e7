package config

import (
	"os"
	"strings"
)

// Environment variables read by the logger.
const (
	EnvTargetOutputs = "BUILDLOG_TARGET_OUTPUTS"
	EnvDiagnostics   = "BUILDLOG_DIAGNOSTICS"
)

// Environment reads process settings. Lookup defaults to os.Getenv.
type Environment struct {
	Lookup func(string) string
}

// OSEnvironment returns an Environment backed by the process environment.
func OSEnvironment() Environment {
	return Environment{Lookup: os.Getenv}
}

// Getenv returns the value of the named variable.
func (e Environment) Getenv(name string) string {
	if e.Lookup == nil {
		return os.Getenv(name)
	}
	return e.Lookup(name)
}

// TargetOutputLogging reports whether target output items should be logged.
func (e Environment) TargetOutputLogging() bool {
	return strings.TrimSpace(e.Getenv(EnvTargetOutputs)) != ""
}

// DiagnosticsFile returns the path of the internal diagnostics file, or "".
func (e Environment) DiagnosticsFile() string {
	return strings.TrimSpace(e.Getenv(EnvDiagnostics))
}
