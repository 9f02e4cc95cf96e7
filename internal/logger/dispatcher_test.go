package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildlog/internal/config"
	"buildlog/internal/diagnostics"
	"buildlog/internal/event"
	"buildlog/internal/trace"
)

type fakeSource struct {
	fn func(event.Event)
}

func (s *fakeSource) Subscribe(fn func(event.Event)) { s.fn = fn }

func (s *fakeSource) emit(evs ...event.Event) {
	for _, ev := range evs {
		s.fn(ev)
	}
}

func newNodeLogger(t *testing.T, params string, opts Options) (*NodeLogger, *fakeSource, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts.Out = &buf
	opts.Env = config.Environment{Lookup: func(string) string { return "" }}
	nl := NewNodeLogger(opts)
	nl.Parameters = params
	src := &fakeSource{}
	require.NoError(t, nl.Initialize(src, 1))
	return nl, src, &buf
}

func TestNodeLoggerDefaults(t *testing.T) {
	nl, _, _ := newNodeLogger(t, "disableconsolecolor;showeventid", Options{})
	p := nl.State().Params
	assert.True(t, config.IsSet(p.ShowSummary))
	assert.False(t, p.ShowPerfSummary)
	require.NotNil(t, p.ShowEventID)
	assert.False(t, *p.ShowEventID)

	nl, _, _ = newNodeLogger(t, "disableconsolecolor;errorsonly", Options{})
	p = nl.State().Params
	require.NotNil(t, p.ShowSummary)
	assert.True(t, *p.ShowSummary, "normal verbosity turns the summary on before errors-only is applied")
	assert.False(t, p.ShowPerfSummary)

	nl, _, _ = newNodeLogger(t, "v=minimal;disableconsolecolor;errorsonly", Options{})
	p = nl.State().Params
	require.NotNil(t, p.ShowSummary)
	assert.False(t, *p.ShowSummary)
}

func TestNodeLoggerDiagnosticPrintsParameters(t *testing.T) {
	nl, _, buf := newNodeLogger(t, "v=diag;disableconsolecolor", Options{})
	assert.True(t, nl.State().Params.ShowPerfSummary)
	assert.True(t, strings.HasPrefix(buf.String(), "Logger parameters: Verbosity=diagnostic"))
}

func TestNodeLoggerRejectsBadParameters(t *testing.T) {
	nl := NewNodeLogger(Options{Out: &bytes.Buffer{}})
	nl.Parameters = "nosuchthing"
	err := nl.Initialize(&fakeSource{}, 1)
	require.ErrorIs(t, err, config.ErrInvalidParameter)
}

func TestNodeLoggerWaitsForDebugger(t *testing.T) {
	var buf bytes.Buffer
	nl := NewNodeLogger(Options{Out: &buf})
	nl.Parameters = "debug;disableconsolecolor"
	calls := 0
	nl.debuggerAttached = func() bool {
		calls++
		return calls > 1
	}
	require.NoError(t, nl.Initialize(&fakeSource{}, 1))
	assert.Equal(t, 2, calls)
	assert.Contains(t, buf.String(), "Waiting for debugger in process")
}

func TestDispatchRecoversFromHandlerFailure(t *testing.T) {
	var diag bytes.Buffer
	nl, src, buf := newNodeLogger(t, "disableconsolecolor", Options{Diagnostics: diagnostics.New(&diag)})
	ctx := event.ProjectContext(1, 1)

	src.emit(projectFinished(ctx, "/src/a.proj", true))
	assert.Contains(t, buf.String(), `Failed to process an event of type "ProjectFinished":`)
	assert.Contains(t, buf.String(), ErrNoStart.Error())
	assert.Contains(t, diag.String(), "level=error")
	assert.Contains(t, diag.String(), "scope=01000001")
	assert.InDelta(t, 1, testutil.ToFloat64(nl.Metrics().failures.WithLabelValues("ProjectFinished")), 0)

	buf.Reset()
	src.emit(projectStarted(ctx, "/src/a.proj", "", nil), message(ctx, "still here", event.High))
	assert.Equal(t, "Project \"/src/a.proj\" on node 1 (default targets).\nstill here\n", buf.String())
	assert.Equal(t, 3, testutil.CollectAndCount(nl.Metrics().events))
	n, err := testutil.GatherAndCount(nl.Metrics().Gatherer(), "buildlog_logger_handler_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, nl.reentrancy.Load())
}

func TestInvokeRecoversPanics(t *testing.T) {
	err := invoke(&event.Custom{}, func(*event.Custom) error { panic("boom") })
	require.ErrorIs(t, err, ErrHandlerPanic)
	assert.Contains(t, err.Error(), "boom")
}

func TestDispatchIsSerialized(t *testing.T) {
	nl, src, _ := newNodeLogger(t, "disableconsolecolor;v=q", Options{})
	var wg sync.WaitGroup
	for node := 1; node <= 8; node++ {
		wg.Add(1)
		go func(node int) {
			defer wg.Done()
			ctx := event.ProjectContext(node, 1)
			src.emit(
				projectStarted(ctx, "/src/a.proj", "", nil),
				message(ctx, "m", event.High),
				projectFinished(ctx, "/src/a.proj", true),
			)
		}(node)
	}
	wg.Wait()
	assert.Zero(t, nl.State().Registry.Projects())
	assert.InDelta(t, 8, testutil.ToFloat64(nl.Metrics().events.WithLabelValues("ProjectStarted")), 0)
	assert.Zero(t, testutil.ToFloat64(nl.Metrics().failures.WithLabelValues("ProjectStarted")))
}

func TestTeamCityHierarchy(t *testing.T) {
	nl, src, buf := newNodeLogger(t, "teamcity;disableconsolecolor;flowid=f1", Options{})
	ctx := event.ProjectContext(1, 1)
	src.emit(
		projectStarted(ctx, "/src/a.proj", "", nil),
		message(ctx, "hi", event.High),
		projectFinished(ctx, "/src/a.proj", true),
		&event.BuildFinished{Head: event.Header{Timestamp: ts0}, Succeeded: true},
	)
	require.NoError(t, nl.Shutdown())

	out := buf.String()
	order := []string{
		"##teamcity[flowStarted flowId='f1']\n",
		"##teamcity[blockOpened name='a.proj' flowId='f1']\n",
		"Project \"/src/a.proj\" on node 1 (default targets).\n",
		"hi\n",
		"Done Building Project \"/src/a.proj\" (default targets).\n",
		"##teamcity[blockClosed name='a.proj' flowId='f1']\n",
		"##teamcity[buildStatisticValue key='BuildStatsW' value='0']\n",
		"##teamcity[buildStatisticValue key='BuildStatsE' value='0']\n",
		"Build succeeded.\n",
		"##teamcity[flowFinished flowId='f1']\n",
	}
	last := -1
	for _, want := range order {
		idx := strings.Index(out, want)
		require.NotEqual(t, -1, idx, "missing %q in\n%s", want, out)
		assert.Greater(t, idx, last, want)
		last = idx
	}
}

func TestStructuredStreamWithoutTeamCity(t *testing.T) {
	var structured bytes.Buffer
	ring := trace.NewRing(16)
	_, src, buf := newNodeLogger(t, "disableconsolecolor", Options{
		Structured: trace.NewStream(&structured, trace.FormatNDJSON),
		Ring:       ring,
	})
	ctx := event.ProjectContext(1, 1)
	src.emit(
		projectStarted(ctx, "/src/a.proj", "", nil),
		&event.Warning{Head: event.Header{Context: ptr(ctx), Message: "careful"}, Location: event.Location{Code: "W1"}},
	)

	assert.NotContains(t, buf.String(), "##teamcity")
	assert.Contains(t, structured.String(), `"kind":"blockOpened"`)
	assert.Contains(t, structured.String(), `"status":"WARNING"`)
	kinds := make([]trace.Kind, 0)
	for _, ev := range ring.Snapshot() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []trace.Kind{trace.KindFlowStarted, trace.KindBlockOpened, trace.KindMessage}, kinds)
}

type closeCounter struct {
	flushes, closes int
}

func (c *closeCounter) Emit(*trace.Event) {}
func (c *closeCounter) Flush() error      { c.flushes++; return nil }
func (c *closeCounter) Close() error      { c.closes++; return nil }
func (c *closeCounter) Enabled() bool     { return true }

func TestShutdownLeavesStructuredStreamOpen(t *testing.T) {
	stream := &closeCounter{}
	nl, _, _ := newNodeLogger(t, "disableconsolecolor", Options{Structured: stream})
	require.NoError(t, nl.Shutdown())
	assert.Equal(t, 1, stream.flushes)
	assert.Zero(t, stream.closes)
}
