package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildlog/internal/event"
)

func projectStarted(ctx event.Context, file, targets string, parent *event.Context) *event.ProjectStarted {
	return &event.ProjectStarted{
		Head:          event.Header{Context: &ctx, Timestamp: time.Unix(100, 0)},
		ProjectFile:   file,
		TargetNames:   targets,
		ParentContext: parent,
	}
}

func targetStarted(ctx event.Context, name, file string) *event.TargetStarted {
	return &event.TargetStarted{
		Head:        event.Header{Context: &ctx, Timestamp: time.Unix(101, 0)},
		TargetName:  name,
		TargetFile:  file,
		ProjectFile: file,
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	r := New()
	ctx := event.ProjectContext(1, 1)

	require.NoError(t, r.AddProjectStarted(projectStarted(ctx, "/src/a.proj", "", nil), false))
	require.NotNil(t, r.GetProjectStarted(ctx))

	r.RemoveProjectStarted(ctx)
	assert.Nil(t, r.GetProjectStarted(ctx))
	assert.NotPanics(t, func() { r.RemoveProjectStarted(ctx) })

	tctx := event.TargetContext(1, 1, 3)
	require.NoError(t, r.AddTargetStarted(targetStarted(tctx, "Build", "/src/a.proj"), false))
	r.RemoveTargetStarted(tctx)
	assert.Nil(t, r.GetTargetStarted(tctx))
	r.RemoveTargetStarted(tctx)
	assert.Zero(t, r.Targets())
}

func TestDuplicateStart(t *testing.T) {
	r := New()
	ctx := event.ProjectContext(1, 1)
	require.NoError(t, r.AddProjectStarted(projectStarted(ctx, "/src/a.proj", "", nil), false))

	err := r.AddProjectStarted(projectStarted(ctx, "/src/a.proj", "", nil), false)
	assert.ErrorIs(t, err, ErrDuplicateStart)

	tctx := event.TargetContext(1, 1, 2)
	require.NoError(t, r.AddTargetStarted(targetStarted(tctx, "Build", "/src/a.proj"), false))
	assert.ErrorIs(t, r.AddTargetStarted(targetStarted(tctx, "Build", "/src/a.proj"), false), ErrDuplicateStart)
}

func TestMissingContext(t *testing.T) {
	r := New()
	err := r.AddProjectStarted(&event.ProjectStarted{ProjectFile: "/src/a.proj"}, false)
	assert.ErrorIs(t, err, ErrMissingContext)

	err = r.AddTargetStarted(&event.TargetStarted{TargetName: "Build"}, false)
	assert.ErrorIs(t, err, ErrMissingContext)
}

func TestTargetsOnDifferentNodesCoexist(t *testing.T) {
	r := New()
	t1 := event.TargetContext(1, 4, 7)
	t2 := event.TargetContext(2, 4, 7)

	require.NoError(t, r.AddTargetStarted(targetStarted(t1, "T1", "/src/a.proj"), false))
	require.NoError(t, r.AddTargetStarted(targetStarted(t2, "T2", "/src/b.proj"), false))

	assert.Equal(t, 2, r.Targets())
	assert.Equal(t, "T1", r.GetTargetStarted(t1).TargetName)
	assert.Equal(t, "T2", r.GetTargetStarted(t2).TargetName)
}

func TestTargetLookupIgnoresTaskID(t *testing.T) {
	r := New()
	require.NoError(t, r.AddTargetStarted(targetStarted(event.TargetContext(1, 1, 2), "Build", "/src/a.proj"), true))

	rec := r.GetTargetStarted(event.NewContext(1, 1, 2, 42))
	require.NotNil(t, rec)
	assert.Equal(t, "/src/a.proj.Build", rec.FullTargetKey)
	assert.Equal(t, time.Unix(101, 0), rec.Timestamp)
}

func TestFullKeys(t *testing.T) {
	r := New()
	a1 := event.ProjectContext(1, 1)
	b := event.ProjectContext(1, 2)
	a2 := event.ProjectContext(1, 3)

	require.NoError(t, r.AddProjectStarted(projectStarted(a1, "/src/a.proj", "", nil), false))
	require.NoError(t, r.AddProjectStarted(projectStarted(b, "/src/b.proj", "", &a1), false))
	require.NoError(t, r.AddProjectStarted(projectStarted(a2, "/src/a.proj", "Pack", &a1), false))

	assert.Equal(t, FullKey{Project: 1, EntryPoint: 1}, r.GetProjectStarted(a1).FullKey)
	assert.Equal(t, FullKey{Project: 2, EntryPoint: 1}, r.GetProjectStarted(b).FullKey)
	assert.Equal(t, FullKey{Project: 1, EntryPoint: 2}, r.GetProjectStarted(a2).FullKey)

	assert.Equal(t, "1:2", r.FullProjectKey(&a2, event.Detailed))
	assert.Equal(t, "1", r.FullProjectKey(&a2, event.Normal))
	assert.Empty(t, r.FullProjectKey(nil, event.Normal))

	missing := event.ProjectContext(9, 9)
	assert.Empty(t, r.FullProjectKey(&missing, event.Normal))
}

func TestProjectCallStack(t *testing.T) {
	r := New()
	root := event.ProjectContext(1, 1)
	mid := event.ProjectContext(1, 2)
	leaf := event.ProjectContext(2, 3)

	require.NoError(t, r.AddProjectStarted(projectStarted(root, "/src/all.sln", "", nil), false))
	require.NoError(t, r.AddProjectStarted(projectStarted(mid, "/src/app.proj", "Build", &root), false))
	require.NoError(t, r.AddProjectStarted(projectStarted(leaf, "/src/lib.proj", "", &mid), false))

	assert.Equal(t, []string{
		`Project "/src/all.sln" (default targets):`,
		`  Project "/src/app.proj" (Build target(s)):`,
		`    Project "/src/lib.proj" (default targets):`,
	}, r.ProjectCallStack(event.NewContext(2, 3, 5, 6)))

	assert.Empty(t, r.ProjectCallStack(event.ProjectContext(7, 7)))
}

func TestSetErrorOrWarningFlag(t *testing.T) {
	r := New()
	root := event.ProjectContext(1, 1)
	child := event.ProjectContext(1, 2)
	require.NoError(t, r.AddProjectStarted(projectStarted(root, "/src/all.sln", "", nil), false))
	require.NoError(t, r.AddProjectStarted(projectStarted(child, "/src/app.proj", "", &root), false))
	tctx := event.TargetContext(1, 2, 4)
	require.NoError(t, r.AddTargetStarted(targetStarted(tctx, "Compile", "/src/app.proj"), false))

	r.SetErrorOrWarningFlag(event.NewContext(1, 2, 4, 9))

	assert.True(t, r.GetTargetStarted(tctx).ErrorInTarget)
	assert.True(t, r.GetProjectStarted(child).ErrorInProject)
	assert.True(t, r.GetProjectStarted(root).ErrorInProject)
}

func TestReset(t *testing.T) {
	r := New()
	ctx := event.ProjectContext(1, 1)
	require.NoError(t, r.AddProjectStarted(projectStarted(ctx, "/src/a.proj", "", nil), false))
	r.Reset()

	assert.Zero(t, r.Projects())
	require.NoError(t, r.AddProjectStarted(projectStarted(ctx, "/src/b.proj", "", nil), false))
	assert.Equal(t, FullKey{Project: 1, EntryPoint: 1}, r.GetProjectStarted(ctx).FullKey)
}
