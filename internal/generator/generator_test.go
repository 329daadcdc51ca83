package generator_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/ecsgen/internal/diag"
	"martianoff/ecsgen/internal/emit"
	"martianoff/ecsgen/internal/generator"
	"martianoff/ecsgen/internal/matcher"
	"martianoff/ecsgen/internal/source"
	"martianoff/ecsgen/internal/testutil"
)

type memSink struct {
	mu    sync.Mutex
	units []*generator.Unit
}

func (s *memSink) AddSource(u *generator.Unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = append(s.units, u)
	return nil
}

func newRunner(t *testing.T, workers int) (*generator.Runner, *memSink, *diag.Collector) {
	t.Helper()
	sink := &memSink{}
	reporter := &diag.Collector{}
	return &generator.Runner{
		Host:     testutil.Manifest(t, "game.yaml"),
		Stages:   generator.DefaultRegistry(generator.DefaultMarkers()),
		Sink:     sink,
		Reporter: reporter,
		Options:  emit.DefaultOptions(),
		Workers:  workers,
		InitFile: true,
	}, sink, reporter
}

func baseNames(units []*generator.Unit) []string {
	var out []string
	for _, u := range units {
		out = append(out, filepath.Base(u.Path()))
	}
	return out
}

func TestRunGameManifest(t *testing.T) {
	r, sink, reporter := newRunner(t, 4)

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	want := []string{
		"authoring_TowerAuthoring_Authoring.gen.go",
		"damageable_Damageable_Capability.gen.go",
		emit.RegistryFile,
		"quiet_Quiet_Capability.gen.go",
		"state_TurretMesh_ManagedComponent.gen.go",
		"state_TurretState_CollectionComponent.gen.go",
		"targetable_Targetable_Capability.gen.go",
		"tower_Tower_Behavior.gen.go",
		"wall_Wall_Behavior.gen.go",
	}
	assert.Equal(t, want, baseNames(res.Units))
	assert.Equal(t, want, baseNames(sink.units))

	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, "ECSGEN01", d.Descriptor.Code)
	assert.Equal(t, 3, d.Location.Line)
	assert.Equal(t, "outer.go", filepath.Base(d.Location.File))
	assert.Contains(t, d.Message, "cannot augment a type declared inside")
	assert.Equal(t, res.Diagnostics, reporter.Diagnostics())
}

func TestRunIgnoresNonPartialAndForeignMarkers(t *testing.T) {
	r, _, _ := newRunner(t, 2)
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	for _, u := range res.Units {
		if u.Decl == nil {
			continue
		}
		assert.NotEqual(t, "Plain", u.Decl.Name)
		assert.NotEqual(t, "Impostor", u.Decl.Name)
		assert.NotEqual(t, "WallAuthoring", u.Decl.Name, "authoring of a script without capabilities emits nothing")
	}
}

func TestRunIsDeterministic(t *testing.T) {
	r1, _, _ := newRunner(t, 1)
	r8, _, _ := newRunner(t, 8)

	a, err := r1.Run(context.Background())
	require.NoError(t, err)
	b, err := r8.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, baseNames(a.Units), baseNames(b.Units))
	for i := range a.Units {
		assert.Equal(t, string(a.Units[i].Source), string(b.Units[i].Source), a.Units[i].Name)
	}
}

func TestRegistryUnitCallsEveryRegistration(t *testing.T) {
	r, _, _ := newRunner(t, 2)
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	var initUnit *generator.Unit
	for _, u := range res.Units {
		if u.Tag == generator.TagRegistry {
			initUnit = u
		}
	}
	require.NotNil(t, initUnit)
	src := string(initUnit.Source)
	for _, u := range res.Units {
		for _, reg := range u.Registrations {
			assert.Contains(t, src, reg+"(t)")
		}
	}
}

func TestRunWithoutInitFile(t *testing.T) {
	r, _, _ := newRunner(t, 2)
	r.InitFile = false
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, baseNames(res.Units), emit.RegistryFile)
}

func TestRunFilter(t *testing.T) {
	r, _, _ := newRunner(t, 2)
	r.InitFile = false
	r.Filter = func(d *source.Declaration) bool { return d.Name == "TurretState" }
	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"state_TurretState_CollectionComponent.gen.go"}, baseNames(res.Units))
	assert.Empty(t, res.Diagnostics)
}

func TestRunCancelledBeforeStart(t *testing.T) {
	r, sink, reporter := newRunner(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
	assert.Empty(t, sink.units)
	assert.Empty(t, reporter.Diagnostics())
}

// hookStage matches collection components and runs fn instead of emitting.
type hookStage struct {
	fn func(ctx context.Context) error
}

func (s *hookStage) Tag() string                 { return "Hook" }
func (s *hookStage) Descriptor() diag.Descriptor { return diag.CollectionComponentFailed }
func (s *hookStage) Spec() matcher.Spec {
	spec := generator.Stages(generator.DefaultMarkers())[0].Spec()
	spec.Tag = "Hook"
	return spec
}

func (s *hookStage) Emit(ctx context.Context, _ *matcher.Match, _ emit.Options) (*generator.Unit, error) {
	return nil, s.fn(ctx)
}

func TestRunCancelledDuringEmission(t *testing.T) {
	r, sink, reporter := newRunner(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, r.Stages.Register(&hookStage{fn: func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	}}))

	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.units)
	assert.Empty(t, reporter.Diagnostics())
}

func TestPanickingStageBecomesDiagnostics(t *testing.T) {
	r, sink, _ := newRunner(t, 4)
	require.NoError(t, r.Stages.Register(&hookStage{fn: func(context.Context) error {
		panic("boom")
	}}))

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	// One per collection-component candidate, plus the nested Hidden failure.
	codes := map[string]int{}
	for _, d := range res.Diagnostics {
		codes[d.Descriptor.Code]++
	}
	assert.Equal(t, 3, codes["ECSGEN01"])
	assert.Contains(t, baseNames(sink.units), "state_TurretState_CollectionComponent.gen.go")
}

func TestRegistryConflict(t *testing.T) {
	stages := generator.Stages(generator.DefaultMarkers())
	_, err := generator.NewRegistry(append(stages, stages[0])...)
	var conflict *generator.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, generator.TagCollectionComponent, conflict.Tag)

	r := generator.DefaultRegistry(generator.DefaultMarkers())
	var tags []string
	for _, s := range r.Stages() {
		tags = append(tags, s.Tag())
	}
	assert.Equal(t, []string{"Authoring", "Behavior", "Capability", "CollectionComponent", "ManagedComponent"}, tags)
	s, ok := r.Get(generator.TagBehavior)
	require.True(t, ok)
	assert.Equal(t, diag.BehaviorFailed, s.Descriptor())
}

func TestLogicalName(t *testing.T) {
	decl := &source.Declaration{Name: "Turret", Location: source.Location{File: "/src/combat/turret.go"}}
	assert.Equal(t, "turret_Turret_Capability.gen.go", generator.LogicalName(decl, generator.TagCapability))
}

func TestFileNameSuffix(t *testing.T) {
	decl := &source.Declaration{Name: "Tower", Location: source.Location{File: "/src/combat/tower.go"}}
	assert.Equal(t, "tower_Tower_Behavior_ecs.go", generator.FileName(decl, generator.TagBehavior, "_ecs.go"))
	assert.Equal(t, "tower_Tower_Behavior.gen.go", generator.FileName(decl, generator.TagBehavior, ""))
}
