package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildlog/internal/config"
	"buildlog/internal/event"
	"buildlog/internal/output"
	"buildlog/internal/perf"
)

var ts0 = time.Date(2024, 3, 1, 10, 20, 30, 456_000_000, time.UTC)

type fixture struct {
	buf    bytes.Buffer
	params config.Parameters
	st     *State
	lg     *Logger
}

func newFixture(t *testing.T, nodes int, v event.Verbosity, opts ...func(*config.Parameters)) *fixture {
	t.Helper()
	f := &fixture{params: config.Default()}
	f.params.Verbosity = v
	f.params.ShowSummary = config.Bool(false)
	for _, o := range opts {
		o(&f.params)
	}
	f.st = NewState(&f.params, nodes)
	f.lg = NewLogger(f.st, output.NewPlainWriter(&f.buf), nil, nil)
	return f
}

func ptr(c event.Context) *event.Context { return &c }

func projectStarted(ctx event.Context, file, targets string, parent *event.Context) *event.ProjectStarted {
	return &event.ProjectStarted{
		Head:          event.Header{Context: ptr(ctx), Timestamp: ts0},
		ProjectFile:   file,
		TargetNames:   targets,
		ParentContext: parent,
	}
}

func projectFinished(ctx event.Context, file string, ok bool) *event.ProjectFinished {
	return &event.ProjectFinished{Head: event.Header{Context: ptr(ctx), Timestamp: ts0}, ProjectFile: file, Succeeded: ok}
}

func message(ctx event.Context, text string, imp event.Importance) *event.Message {
	return &event.Message{Head: event.Header{Context: ptr(ctx), Timestamp: ts0, Message: text}, Importance: imp}
}

func TestDefaultTargetsBannerPrecedesMessage(t *testing.T) {
	f := newFixture(t, 1, event.Normal)
	ctx := event.ProjectContext(1, 1)
	require.NoError(t, f.lg.ProjectStarted(projectStarted(ctx, "/src/a.proj", "", nil)))
	assert.Empty(t, f.buf.String())

	require.NoError(t, f.lg.Message(message(ctx, "hello", event.High)))
	assert.Equal(t, "Project \"/src/a.proj\" on node 1 (default targets).\nhello\n", f.buf.String())
	assert.True(t, f.st.Registry.GetProjectStarted(ctx).StartedShown)
}

func TestRevealIsIdempotent(t *testing.T) {
	f := newFixture(t, 1, event.Normal)
	ctx := event.ProjectContext(1, 1)
	require.NoError(t, f.lg.ProjectStarted(projectStarted(ctx, "/src/a.proj", "Build", nil)))

	f.lg.DisplayDeferredProjectStarted(ctx)
	f.lg.DisplayDeferredProjectStarted(ctx)
	assert.Equal(t, 1, strings.Count(f.buf.String(), "Project \"/src/a.proj\""))
}

func TestLazySuppression(t *testing.T) {
	t.Run("quiet hides normal messages", func(t *testing.T) {
		f := newFixture(t, 1, event.Quiet)
		ctx := event.ProjectContext(1, 1)
		require.NoError(t, f.lg.ProjectStarted(projectStarted(ctx, "/src/a.proj", "", nil)))
		require.NoError(t, f.lg.Message(message(ctx, "noise", event.NormalImportance)))
		require.NoError(t, f.lg.ProjectFinished(projectFinished(ctx, "/src/a.proj", true)))
		assert.Empty(t, f.buf.String())
	})
	t.Run("empty project at normal", func(t *testing.T) {
		f := newFixture(t, 1, event.Normal)
		ctx := event.ProjectContext(1, 1)
		require.NoError(t, f.lg.ProjectStarted(projectStarted(ctx, "/src/a.proj", "", nil)))
		require.NoError(t, f.lg.ProjectFinished(projectFinished(ctx, "/src/a.proj", true)))
		assert.Empty(t, f.buf.String())
		assert.Zero(t, f.st.Registry.Projects())
	})
}

func TestNestedProjectsRenderAncestorsFirst(t *testing.T) {
	f := newFixture(t, 1, event.Normal)
	root := event.ProjectContext(1, 1)
	lib := event.ProjectContext(1, 2)
	require.NoError(t, f.lg.ProjectStarted(projectStarted(root, "/src/root.proj", "Build", nil)))
	require.NoError(t, f.lg.ProjectStarted(projectStarted(lib, "/src/lib.proj", "", ptr(root))))
	require.NoError(t, f.lg.Message(message(lib, "compiling", event.High)))
	require.NoError(t, f.lg.ProjectFinished(projectFinished(lib, "/src/lib.proj", true)))
	require.NoError(t, f.lg.ProjectFinished(projectFinished(root, "/src/root.proj", false)))

	want := strings.Join([]string{
		`Project "/src/root.proj" on node 1 (Build target(s)).`,
		`Project "/src/root.proj" (1) is building "/src/lib.proj" (2) on node 1 (default targets).`,
		`compiling`,
		`Done Building Project "/src/lib.proj" (default targets).`,
		`Done Building Project "/src/root.proj" (Build target(s)) -- FAILED.`,
	}, "\n") + "\n"
	assert.Equal(t, want, f.buf.String())
}

func TestTargetInProjectFileUsesProjectPhrasing(t *testing.T) {
	f := newFixture(t, 1, event.Detailed)
	pctx := event.ProjectContext(1, 1)
	tctx := event.TargetContext(1, 1, 2)
	kctx := event.NewContext(1, 1, 2, 5)
	require.NoError(t, f.lg.ProjectStarted(projectStarted(pctx, "/src/a.proj", "Build", nil)))
	require.NoError(t, f.lg.TargetStarted(&event.TargetStarted{
		Head:         event.Header{Context: ptr(tctx), Timestamp: ts0},
		TargetName:   "Compile",
		TargetFile:   "/src/a.proj",
		ProjectFile:  "/src/a.proj",
		ParentTarget: "Build",
	}))
	require.NoError(t, f.lg.TaskStarted(&event.TaskStarted{
		Head:     event.Header{Context: ptr(kctx), Timestamp: ts0, Message: `Task "Csc"`},
		TaskName: "Csc",
	}))
	require.NoError(t, f.lg.TargetFinished(&event.TargetFinished{
		Head:       event.Header{Context: ptr(tctx), Timestamp: ts0, Message: `Done building target "Compile".`},
		TargetName: "Compile",
		Succeeded:  true,
	}))

	want := strings.Join([]string{
		`Project "/src/a.proj" on node 1 (Build target(s)).`,
		`Target "Compile" in project "/src/a.proj" (target "Build" depends on it):`,
		`Task "Csc"`,
		`Done building target "Compile".`,
	}, "\n") + "\n"
	assert.Equal(t, want, f.buf.String())
	assert.NotContains(t, f.buf.String(), "in file")
	assert.Zero(t, f.st.Registry.Targets())
}

func TestTargetsOnDifferentNodesCoexist(t *testing.T) {
	f := newFixture(t, 2, event.Normal)
	for node := 1; node <= 2; node++ {
		ctx := event.TargetContext(node, 1, 3)
		require.NoError(t, f.lg.TargetStarted(&event.TargetStarted{
			Head:       event.Header{Context: ptr(ctx), Timestamp: ts0},
			TargetName: "T",
		}))
	}
	assert.Equal(t, 2, f.st.Registry.Targets())
	assert.NotSame(t,
		f.st.Registry.GetTargetStarted(event.TargetContext(1, 1, 3)),
		f.st.Registry.GetTargetStarted(event.TargetContext(2, 1, 3)))
}

func TestMessagesWaitForTheirProject(t *testing.T) {
	f := newFixture(t, 1, event.Normal)
	require.NoError(t, f.lg.BuildStarted(&event.BuildStarted{Head: event.Header{Timestamp: ts0}}))
	ctx := event.ProjectContext(1, 7)
	require.NoError(t, f.lg.Message(message(ctx, "early", event.High)))
	assert.Equal(t, "Build started 2024-03-01 10:20:30.\n", f.buf.String())
	assert.Equal(t, 1, f.st.DeferredCount())

	require.NoError(t, f.lg.ProjectStarted(projectStarted(ctx, "/src/late.proj", "", nil)))
	assert.Equal(t, "Build started 2024-03-01 10:20:30.\n"+
		"Project \"/src/late.proj\" on node 1 (default targets).\n"+
		"early\n", f.buf.String())
	assert.Zero(t, f.st.DeferredCount())
}

func TestBuildFinishedFlushesDeferredMessages(t *testing.T) {
	f := newFixture(t, 1, event.Normal)
	require.NoError(t, f.lg.BuildStarted(&event.BuildStarted{Head: event.Header{Timestamp: ts0}}))
	require.NoError(t, f.lg.Message(message(event.ProjectContext(1, 9), "orphan", event.High)))
	require.NoError(t, f.lg.BuildFinished(&event.BuildFinished{
		Head:      event.Header{Timestamp: ts0.Add(5 * time.Second)},
		Succeeded: true,
	}))

	assert.Equal(t, "Build started 2024-03-01 10:20:30.\n"+
		"\nDeferred Messages\n"+
		"orphan\n"+
		"\nBuild succeeded.\n"+
		"\nTime Elapsed 00:00:05\n", f.buf.String())
	assert.False(t, f.st.HasBuildStarted)
	assert.Zero(t, f.st.DeferredCount())
}

func TestErrorSummary(t *testing.T) {
	f := newFixture(t, 1, event.Normal, func(p *config.Parameters) { p.ShowSummary = config.Bool(true) })
	pctx := event.ProjectContext(1, 1)
	tctx := event.TargetContext(1, 1, 2)
	require.NoError(t, f.lg.BuildStarted(&event.BuildStarted{Head: event.Header{Timestamp: ts0}}))
	require.NoError(t, f.lg.ProjectStarted(projectStarted(pctx, "/src/a.proj", "Build", nil)))
	require.NoError(t, f.lg.TargetStarted(&event.TargetStarted{
		Head:       event.Header{Context: ptr(tctx), Timestamp: ts0},
		TargetName: "CoreCompile",
		TargetFile: "/src/a.proj",
	}))
	require.NoError(t, f.lg.Error(&event.Error{
		Head:     event.Header{Context: ptr(event.NewContext(1, 1, 2, 4)), Timestamp: ts0, Message: "; expected"},
		Location: event.Location{File: "a.cs", LineNumber: 3, ColumnNumber: 9, Code: "CS1002", ProjectFile: "/src/a.proj"},
	}))
	require.NoError(t, f.lg.TargetFinished(&event.TargetFinished{Head: event.Header{Context: ptr(tctx), Timestamp: ts0}, TargetName: "CoreCompile"}))
	require.NoError(t, f.lg.ProjectFinished(projectFinished(pctx, "/src/a.proj", false)))
	require.NoError(t, f.lg.BuildFinished(&event.BuildFinished{Head: event.Header{Timestamp: ts0.Add(1500 * time.Millisecond)}}))

	want := strings.Join([]string{
		"Build started 2024-03-01 10:20:30.",
		`Project "/src/a.proj" on node 1 (Build target(s)).`,
		"a.cs(3,9): error CS1002: ; expected [/src/a.proj]",
		`Done Building Project "/src/a.proj" (Build target(s)) -- FAILED.`,
		"",
		"Build FAILED.",
		"",
		`Project "/src/a.proj" (Build target(s)):`,
		"  (CoreCompile target) ->",
		"    a.cs(3,9): error CS1002: ; expected [/src/a.proj]",
		"",
		"    0 Warning(s)",
		"    1 Error(s)",
		"",
		"Time Elapsed 00:00:01.50",
	}, "\n") + "\n"
	assert.Equal(t, want, f.buf.String())
}

func TestWarningsOnlyHidesErrors(t *testing.T) {
	f := newFixture(t, 1, event.Normal, func(p *config.Parameters) { p.ShowOnlyWarnings = true })
	ctx := event.ProjectContext(1, 1)
	require.NoError(t, f.lg.ProjectStarted(projectStarted(ctx, "/src/a.proj", "", nil)))
	require.NoError(t, f.lg.Error(&event.Error{Head: event.Header{Context: ptr(ctx), Message: "bad"}}))
	require.NoError(t, f.lg.Warning(&event.Warning{Head: event.Header{Context: ptr(ctx), Message: "meh"}}))

	assert.Equal(t, "BUILDLOG : warning : meh\n", f.buf.String())
	assert.Equal(t, 1, f.st.ErrorCount)
	assert.Equal(t, 1, f.st.WarningCount)
	assert.True(t, f.st.Registry.GetProjectStarted(ctx).ErrorInProject)
}

func TestPerformanceCounters(t *testing.T) {
	f := newFixture(t, 1, event.Normal, func(p *config.Parameters) { p.ShowPerfSummary = true })
	pctx := event.ProjectContext(1, 1)
	tctx := event.TargetContext(1, 1, 2)
	kctx := event.NewContext(1, 1, 2, 3)
	at := func(ms int) event.Header { return event.Header{Timestamp: ts0.Add(time.Duration(ms) * time.Millisecond)} }
	with := func(h event.Header, c event.Context) event.Header { h.Context = ptr(c); return h }

	require.NoError(t, f.lg.ProjectStarted(&event.ProjectStarted{Head: with(at(0), pctx), ProjectFile: "/src/a.proj", TargetNames: "Build"}))
	require.NoError(t, f.lg.TargetStarted(&event.TargetStarted{Head: with(at(1), tctx), TargetName: "Compile"}))
	require.NoError(t, f.lg.TaskStarted(&event.TaskStarted{Head: with(at(2), kctx), TaskName: "Csc"}))
	require.NoError(t, f.lg.TaskFinished(&event.TaskFinished{Head: with(at(5), kctx), TaskName: "Csc"}))
	require.NoError(t, f.lg.TargetFinished(&event.TargetFinished{Head: with(at(8), tctx), TargetName: "Compile"}))
	require.NoError(t, f.lg.ProjectFinished(&event.ProjectFinished{Head: with(at(10), pctx), ProjectFile: "/src/a.proj"}))

	check := func(level *perf.Level, name string, want time.Duration) {
		t.Helper()
		c, ok := level.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, c.Elapsed(), name)
		assert.Equal(t, 1, c.Calls(), name)
	}
	check(f.st.ProjectCounters, "/SRC/A.PROJ", 10*time.Millisecond)
	check(f.st.TargetCounters, "compile", 7*time.Millisecond)
	check(f.st.TaskCounters, "Csc", 3*time.Millisecond)

	var rep perf.Report
	f.lg.OnBuildFinished(func(st *State) { rep = st.PerfReport() })
	require.NoError(t, f.lg.BuildFinished(&event.BuildFinished{Head: at(20), Succeeded: true}))
	require.Len(t, rep.Tasks, 1)
	assert.Equal(t, "Csc", rep.Tasks[0].Name)
	out := f.buf.String()
	project := strings.Index(out, "Project Performance Summary:")
	target := strings.Index(out, "Target Performance Summary:")
	task := strings.Index(out, "Task Performance Summary:")
	require.NotEqual(t, -1, project)
	assert.Less(t, project, target)
	assert.Less(t, target, task)
	assert.Contains(t, out, "/src/a.proj")
	assert.Zero(t, f.st.ProjectCounters.Len())
}

func TestTargetFinishedWithoutStartFails(t *testing.T) {
	f := newFixture(t, 1, event.Normal, func(p *config.Parameters) { p.ShowPerfSummary = true })
	err := f.lg.TargetFinished(&event.TargetFinished{
		Head:       event.Header{Context: ptr(event.TargetContext(1, 1, 2)), Timestamp: ts0},
		TargetName: "Ghost",
	})
	require.ErrorIs(t, err, perf.ErrNotStarted)
}

func TestProjectFinishedWithoutStart(t *testing.T) {
	f := newFixture(t, 1, event.Normal)
	err := f.lg.ProjectFinished(projectFinished(event.ProjectContext(1, 1), "/src/a.proj", true))
	require.ErrorIs(t, err, ErrNoStart)
}

func TestPropertiesAndItems(t *testing.T) {
	f := newFixture(t, 1, event.Diagnostic)
	ev := projectStarted(event.ProjectContext(1, 1), "/src/a.proj", "", nil)
	ev.Properties = map[string]string{"b": "2", "A": "1"}
	ev.Items = []event.Item{
		{Type: "Compile", Spec: "b.cs"},
		{Type: "compile", Spec: "A.cs", Metadata: map[string]string{"Link": "x"}},
		{Type: "Ref", Spec: "r.dll"},
	}
	require.NoError(t, f.lg.ProjectStarted(ev))

	want := strings.Join([]string{
		`Project "/src/a.proj" on node 1 (default targets).`,
		"Initial Properties:",
		"A = 1",
		"b = 2",
		"Initial Items:",
		"Compile",
		"    A.cs",
		"        Link = x",
		"    b.cs",
		"Ref",
		"    r.dll",
	}, "\n") + "\n"
	assert.Equal(t, want, f.buf.String())
}

func TestCommandLineMessages(t *testing.T) {
	f := newFixture(t, 1, event.Minimal)
	ctx := event.ProjectContext(1, 1)
	require.NoError(t, f.lg.ProjectStarted(projectStarted(ctx, "/src/a.proj", "", nil)))
	cmd := &event.Message{Head: event.Header{Context: ptr(ctx)}, Importance: event.Low, CommandLine: "csc /out:a.dll"}
	require.NoError(t, f.lg.Message(cmd))
	assert.Empty(t, f.buf.String())

	f.params.ShowCommandLine = true
	require.NoError(t, f.lg.Message(cmd))
	assert.Equal(t, "csc /out:a.dll\n", f.buf.String())
}

func TestMessageWithoutContext(t *testing.T) {
	f := newFixture(t, 1, event.Normal)
	err := f.lg.Message(&event.Message{Head: event.Header{Message: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Message")
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{5 * time.Second, "00:00:05"},
		{1500 * time.Millisecond, "00:00:01.50"},
		{time.Hour + 2*time.Minute + 3*time.Second + 100, "01:02:03.00"},
		{26 * time.Hour, "1.02:00:00"},
		{-2 * time.Second, "-00:00:02"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatElapsed(tt.d))
		})
	}
}

// colorMarks renders color changes as [Name] and resets as [/].
type colorMarks struct{ strings.Builder }

func (w *colorMarks) Write(s string)           { w.WriteString(s) }
func (w *colorMarks) SetColor(c output.Color) { w.WriteString("[" + c.String() + "]") }
func (w *colorMarks) ResetColor()             { w.WriteString("[/]") }

func TestMinimalSummaryShowsElapsedAndWarningColor(t *testing.T) {
	params := config.Default()
	params.Verbosity = event.Minimal
	params.ShowSummary = config.Bool(true)
	st := NewState(&params, 2)
	var out colorMarks
	lg := NewLogger(st, &out, nil, nil)

	pctx := event.ProjectContext(1, 1)
	require.NoError(t, lg.BuildStarted(&event.BuildStarted{Head: event.Header{Timestamp: ts0}}))
	require.NoError(t, lg.ProjectStarted(projectStarted(pctx, "/src/a.proj", "", nil)))
	require.NoError(t, lg.Warning(&event.Warning{
		Head:     event.Header{Context: ptr(pctx), Timestamp: ts0, Message: "careful"},
		Location: event.Location{File: "a.cs", LineNumber: 1, Code: "W1"},
	}))
	require.NoError(t, lg.ProjectFinished(projectFinished(pctx, "/src/a.proj", false)))
	require.NoError(t, lg.BuildFinished(&event.BuildFinished{Head: event.Header{Timestamp: ts0.Add(2 * time.Second)}}))

	got := out.String()
	assert.Contains(t, got, "[Warning]\nBuild FAILED.\n[/]")
	assert.NotContains(t, got, "[Error]\nBuild FAILED.")
	assert.True(t, strings.HasSuffix(got, "\nTime Elapsed 00:00:02\n"), got)
}

func TestNestedSummaryPrintsCallStackOncePerProject(t *testing.T) {
	f := newFixture(t, 1, event.Normal, func(p *config.Parameters) { p.ShowSummary = config.Bool(true) })
	pctx := event.ProjectContext(1, 1)
	require.NoError(t, f.lg.BuildStarted(&event.BuildStarted{Head: event.Header{Timestamp: ts0}}))
	require.NoError(t, f.lg.ProjectStarted(projectStarted(pctx, "/src/a.proj", "Build", nil)))

	fail := func(target int, name, file, code, text string, line int) {
		tctx := event.TargetContext(1, 1, target)
		require.NoError(t, f.lg.TargetStarted(&event.TargetStarted{
			Head:       event.Header{Context: ptr(tctx), Timestamp: ts0},
			TargetName: name,
			TargetFile: "/src/a.proj",
		}))
		require.NoError(t, f.lg.Error(&event.Error{
			Head:     event.Header{Context: ptr(event.NewContext(1, 1, target, 10+target)), Timestamp: ts0, Message: text},
			Location: event.Location{File: file, LineNumber: line, Code: code},
		}))
		require.NoError(t, f.lg.TargetFinished(&event.TargetFinished{Head: event.Header{Context: ptr(tctx), Timestamp: ts0}, TargetName: name}))
	}
	fail(2, "Compile", "a.cs", "E1", "one", 1)
	fail(3, "Link", "b.cs", "E2", "two", 2)
	require.NoError(t, f.lg.ProjectFinished(projectFinished(pctx, "/src/a.proj", false)))
	require.NoError(t, f.lg.BuildFinished(&event.BuildFinished{Head: event.Header{Timestamp: ts0.Add(time.Second)}}))

	got := f.buf.String()
	i := strings.Index(got, "Build FAILED.\n")
	require.GreaterOrEqual(t, i, 0, got)
	want := strings.Join([]string{
		"Build FAILED.",
		"",
		`Project "/src/a.proj" (Build target(s)):`,
		"  (Compile target) ->",
		"    a.cs(1): error E1: one",
		"",
		"  (Link target) ->",
		"    b.cs(2): error E2: two",
		"",
		"    0 Warning(s)",
		"    2 Error(s)",
		"",
		"Time Elapsed 00:00:01",
	}, "\n") + "\n"
	assert.Equal(t, want, got[i:])
	assert.Equal(t, 1, strings.Count(got, `Project "/src/a.proj" (Build target(s)):`))
}
