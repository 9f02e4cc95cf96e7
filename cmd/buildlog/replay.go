package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"buildlog/internal/config"
	"buildlog/internal/diagnostics"
	"buildlog/internal/event"
	"buildlog/internal/logger"
	"buildlog/internal/perf"
	"buildlog/internal/replay"
	"buildlog/internal/trace"
)

var replayCmd = &cobra.Command{
	Use:   "replay [flags] events.ndjson",
	Short: "Render a recorded build event log",
	Long: `Replay feeds a recorded event log (NDJSON, or msgpack for .mp/.msgpack files)
through the logger and writes the rendered build log to stdout`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().Bool("parallel", false, "deliver each node's events from its own goroutine")
	replayCmd.Flags().Int("jobs", 0, "max concurrent nodes with --parallel (0=GOMAXPROCS)")
	replayCmd.Flags().Int("nodes", 0, "number of build nodes (0=count nodes in the log)")
	replayCmd.Flags().String("perf-out", "", "write the performance counters to this file (msgpack)")
	replayCmd.Flags().String("metrics-file", "", "write dispatcher metrics to this file (Prometheus text format)")
	replayCmd.Flags().String("structured", "", "write hierarchy blocks to this file (\"-\" for stderr)")
	replayCmd.Flags().String("structured-format", "ndjson", "structured stream format (ndjson|teamcity)")
	replayCmd.Flags().Int("ring-size", 256, "structured events kept for failure reports (0 disables)")
}

func runReplay(cmd *cobra.Command, args []string) (err error) {
	path := args[0]

	s, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	parallel, err := cmd.Flags().GetBool("parallel")
	if err != nil {
		return fmt.Errorf("failed to get parallel flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	nodes, err := cmd.Flags().GetInt("nodes")
	if err != nil {
		return fmt.Errorf("failed to get nodes flag: %w", err)
	}
	perfOut, err := cmd.Flags().GetString("perf-out")
	if err != nil {
		return fmt.Errorf("failed to get perf-out flag: %w", err)
	}
	metricsFile, err := cmd.Flags().GetString("metrics-file")
	if err != nil {
		return fmt.Errorf("failed to get metrics-file flag: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()
	src, err := replay.Load(f, event.DetectFormat(path))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if nodes <= 0 {
		nodes = src.Nodes()
	}

	closeStructured, err := setupStructured(cmd, s)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeStructured(); err == nil {
			err = closeErr
		}
	}()
	ctx := cmd.Context()

	env := config.OSEnvironment()
	diag, err := diagnostics.Open(env.DiagnosticsFile())
	if err != nil {
		return err
	}
	defer diag.Close()

	var report *perf.Report
	nl := logger.NewNodeLogger(logger.Options{
		Out:         cmd.OutOrStdout(),
		Terminal:    isTerminal(os.Stdout),
		Base:        &s.params,
		Env:         env,
		Structured:  trace.FromContext(ctx),
		Ring:        trace.RingFromContext(ctx),
		Diagnostics: diag,
		BuildFinished: func(st *logger.State) {
			if st.Params.ShowPerfSummary {
				r := st.PerfReport()
				report = &r
			}
		},
	})
	nl.Parameters = s.parameters
	if err := nl.Initialize(src, nodes); err != nil {
		return err
	}

	if parallel {
		err = src.RunParallel(ctx, jobs)
	} else {
		err = src.Run(ctx)
	}
	if shutdownErr := nl.Shutdown(); err == nil {
		err = shutdownErr
	}
	if err != nil {
		return err
	}

	if perfOut != "" {
		if report == nil {
			return errNoPerfReport
		}
		if err := writePerfReport(perfOut, *report); err != nil {
			return err
		}
	}
	if metricsFile != "" {
		if err := nl.Metrics().WriteFile(metricsFile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

var errNoPerfReport = errors.New("no performance counters were collected (enable them with --parameters performancesummary or a diagnostic verbosity)")

func writePerfReport(path string, r perf.Report) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create perf report: %w", err)
	}
	if err := perf.WriteReport(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
