// Package resources holds the message templates used by the logger.
//
// Templates use explicit argument indexes (%[1]s) so that the same arguments
// can be reordered or reused by a template without changing call sites.
package resources

import "fmt"

//nolint:gochecknoglobals // read-only template table
var templates = map[string]string{
	"BuildStartedWithTime": "Build started %[1]s.",
	"EnvironmentHeader":    "Environment at start of build:",
	"PropertyListHeader":   "Initial Properties:",
	"ItemListHeader":       "Initial Items:",
	"DeferredMessages":     "Deferred Messages",
	"EnvironmentBlock":     "Environment",
	"BuildSucceeded":       "Build succeeded.",
	"BuildFailed":          "Build FAILED.",

	"ProjectStartedTopLevelProjectWithDefaultTargets": "Project \"%[1]s\" on node %[2]d (default targets).",
	"ProjectStartedTopLevelProjectWithTargetNames":    "Project \"%[1]s\" on node %[2]d (%[3]s target(s)).",
	"ProjectStartedWithDefaultTargetsMultiProc":       "Project \"%[1]s\" (%[2]s) is building \"%[3]s\" (%[4]s) on node %[5]d (default targets).",
	"ProjectStartedWithTargetsMultiProc":              "Project \"%[1]s\" (%[2]s) is building \"%[3]s\" (%[4]s) on node %[5]d (%[6]s target(s)).",

	"ProjectFinishedPrefixWithDefaultTargetsMultiProc":       "Done Building Project \"%[1]s\" (default targets).",
	"ProjectFinishedPrefixWithDefaultTargetsMultiProcFailed": "Done Building Project \"%[1]s\" (default targets) -- FAILED.",
	"ProjectFinishedPrefixWithTargetNamesMultiProc":          "Done Building Project \"%[1]s\" (%[2]s target(s)).",
	"ProjectFinishedPrefixWithTargetNamesMultiProcFailed":    "Done Building Project \"%[1]s\" (%[2]s target(s)) -- FAILED.",

	"TargetStartedProjectDepends":     "Target \"%[1]s\" in project \"%[2]s\" (target \"%[3]s\" depends on it):",
	"TargetStartedProjectEntry":       "Target \"%[1]s\" in project \"%[2]s\" (entry point):",
	"TargetStartedFileProjectDepends": "Target \"%[1]s\" in file \"%[2]s\" from project \"%[3]s\" (target \"%[4]s\" depends on it):",
	"TargetStartedFileProjectEntry":   "Target \"%[1]s\" in file \"%[2]s\" from project \"%[3]s\" (entry point):",
	"TargetMessageWithId":             "%[1]s (id: %[2]d)",
	"TaskMessageWithId":               "%[1]s (id: %[2]d)",
	"TargetOutputItemsHeader":         "Target output items:",
	"TargetOutputItem":                "    %[1]s",

	"ProjectStackWithDefaultTargets": "Project \"%[1]s\" (default targets):",
	"ProjectStackWithTargetNames":    "Project \"%[1]s\" (%[2]s target(s)):",
	"ErrorWarningInTarget":           "(%[1]s target) ->",

	"WarningCount": "%[1]d Warning(s)",
	"ErrorCount":   "%[1]d Error(s)",
	"TimeElapsed":  "Time Elapsed %[1]s",

	"ProjectPerformanceSummary": "Project Performance Summary:",
	"TargetPerformanceSummary":  "Target Performance Summary:",
	"TaskPerformanceSummary":    "Task Performance Summary:",
	"PerformanceLine":           "%[1]s ms  %[2]s %[3]s calls",
	"PerformanceSummaryBlock":   "Performance Summary",

	"HandlerFailed":      "Failed to process an event of type \"%[1]s\":\n%[2]s",
	"WaitingForDebugger": "Waiting for debugger in process: [%[1]d] \"%[2]s\"",
	"LoggerParameters":   "Logger parameters: %[1]s",
}

// Has reports whether a template with the given name exists.
func Has(name string) bool {
	_, ok := templates[name]
	return ok
}

// Format renders the named template with args. Unknown names render as an empty string.
func Format(name string, args ...any) string {
	tmpl, ok := templates[name]
	if !ok {
		return ""
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
