package gohost_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/ecsgen/internal/emit"
	"martianoff/ecsgen/internal/generator"
	"martianoff/ecsgen/internal/ir"
	"martianoff/ecsgen/internal/source"
	"martianoff/ecsgen/internal/source/gohost"
	"martianoff/ecsgen/internal/testutil"
)

const framework = "example.com/game/ecs"

var (
	loadOnce sync.Once
	loaded   *gohost.Host
	loadErr  error
)

func requireGo(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not available")
	}
}

func gameHost(t *testing.T) *gohost.Host {
	t.Helper()
	requireGo(t)
	dir := testutil.Testdata(t, "gomod")
	loadOnce.Do(func() {
		loaded, loadErr = gohost.Load(context.Background(), gohost.Config{Dir: dir})
	})
	require.NoError(t, loadErr)
	return loaded
}

func declNamed(t *testing.T, h *gohost.Host, name string) *source.Declaration {
	t.Helper()
	decls, err := h.AllTypeDeclarations(context.Background())
	require.NoError(t, err)
	for _, d := range decls {
		if d.Name == name {
			return d
		}
	}
	t.Fatalf("declaration %s not found", name)
	return nil
}

func TestDeclarations(t *testing.T) {
	h := gameHost(t)

	damageable := declNamed(t, h, "Damageable")
	assert.Equal(t, source.KindInterface, damageable.Kind)
	assert.Equal(t, source.AccessPublic, damageable.Access)
	assert.Equal(t, []string{"partial"}, damageable.Modifiers)
	assert.Equal(t, "damageable", damageable.FileStem())
	assert.Equal(t, 8, damageable.Location.Line)
	require.Len(t, damageable.Bases, 1)
	assert.Equal(t, "ecs.Capability", damageable.Bases[0].String())

	plain := declNamed(t, h, "Plain")
	assert.Equal(t, source.KindStruct, plain.Kind)
	assert.Empty(t, plain.Modifiers)

	authoring := declNamed(t, h, "TowerAuthoring")
	require.Len(t, authoring.Bases, 1)
	assert.Equal(t, "Authoring", authoring.Bases[0].SimpleName())
	require.Len(t, authoring.Bases[0].Args, 1)
	assert.Equal(t, "Tower", authoring.Bases[0].Args[0].Name)

	hidden := declNamed(t, h, "Hidden")
	assert.Equal(t, source.AccessPrivate, hidden.Access)
	require.NotNil(t, hidden.Parent)
	assert.Equal(t, source.KindFunc, hidden.Parent.Kind)
	assert.Equal(t, "spawn", hidden.Parent.Name)
	assert.Equal(t, source.KindNamespace, hidden.Parent.Parent.Kind)
	assert.Equal(t, []string{"partial"}, hidden.Modifiers)
}

func TestResolveType(t *testing.T) {
	h := gameHost(t)
	tests := []struct {
		decl string
		ref  string
		want string
	}{
		{"Damageable", "ecs.Capability", framework + ".Capability"},
		{"Shield", "core.Capability", framework + ".Capability"},
		{"Decoy", "fake.Capability", "example.com/game/fake.Capability"},
		{"Turret", "Damageable", "example.com/game/combat.Damageable"},
		{"Impostor", "fake.CollectionComponent", "example.com/game/fake.CollectionComponent"},
	}
	for _, tt := range tests {
		t.Run(tt.decl, func(t *testing.T) {
			d := declNamed(t, h, tt.decl)
			sym, err := h.ResolveType(d, source.ParseTypeRef(tt.ref))
			require.NoError(t, err)
			assert.Equal(t, tt.want, sym.FullName())
		})
	}

	_, err := h.ResolveType(declNamed(t, h, "Damageable"), source.ParseTypeRef("ecs.Behavior"))
	assert.ErrorContains(t, err, "cannot resolve ecs.Behavior in Damageable")
}

func TestGenericBase(t *testing.T) {
	h := gameHost(t)
	d := declNamed(t, h, "TowerAuthoring")
	base, err := h.ResolveType(d, d.Bases[0])
	require.NoError(t, err)
	assert.Equal(t, framework+".Authoring", base.OriginName())
	require.Len(t, base.TypeArgs, 1)
	assert.Equal(t, "example.com/game/combat.Tower", base.TypeArgs[0].FullName())
}

func TestTurretSymbol(t *testing.T) {
	h := gameHost(t)
	sym, err := h.DeclaredSymbol(declNamed(t, h, "Turret"))
	require.NoError(t, err)

	var inherited []string
	for _, i := range sym.Interfaces {
		inherited = append(inherited, i.Name)
	}
	assert.ElementsMatch(t, []string{"Capability", "Damageable", "Targetable"}, inherited)
	assert.True(t, sym.Inherits(framework+".Capability"))

	members := map[string]*source.MemberSymbol{}
	for _, m := range sym.Members {
		members[m.Name] = m
	}
	fire := members["Fire"]
	require.NotNil(t, fire)
	require.Len(t, fire.Params, 1)
	assert.Equal(t, source.ModeIn, fire.Params[0].Mode)
	assert.Equal(t, "*"+framework+".Entity", fire.Params[0].Type.Full)
	assert.Equal(t, []source.Package{{Path: framework, Name: "ecs"}}, fire.Params[0].Type.Refs)

	barrel := members["Barrel"]
	require.NotNil(t, barrel)
	assert.Equal(t, source.ModeRef, barrel.ResultMode)

	item := members["Item"]
	require.NotNil(t, item)
	assert.Equal(t, source.MemberProperty, item.Kind)
	assert.Equal(t, "At", item.Getter)
	assert.Equal(t, "SetAt", item.Setter)
	require.Len(t, item.Params, 1)
	assert.Equal(t, "int", item.Result.Full)
	assert.Equal(t, source.MethodPropertyGet, members["At"].MethodKind)
}

func TestExtractTurret(t *testing.T) {
	h := gameHost(t)
	sym, err := h.DeclaredSymbol(declNamed(t, h, "Turret"))
	require.NoError(t, err)

	iface, err := ir.ExtractInterface(context.Background(), sym, ir.Options{Root: framework + ".Capability"})
	require.NoError(t, err)

	var methods []string
	for _, m := range iface.Methods {
		methods = append(methods, m.Name)
	}
	assert.Equal(t, []string{"Barrel", "Fire", "Position", "TakeDamage"}, methods)
	assert.True(t, iface.Methods[3].Qualified)

	require.Len(t, iface.Properties, 1)
	assert.Equal(t, "Health", iface.Properties[0].Name)
	assert.Equal(t, 4, iface.Properties[0].GetOp)
	assert.Equal(t, 5, iface.Properties[0].SetOp)
	require.Len(t, iface.Indexers, 1)
	assert.Equal(t, 6, iface.Indexers[0].GetOp)
	assert.Equal(t, 7, iface.Indexers[0].SetOp)
	assert.Equal(t, 8, iface.OpCount)
}

func TestRunnerOverGoPackages(t *testing.T) {
	h := gameHost(t)
	markers := generator.DefaultMarkers()
	markers.Framework = source.Package{Path: framework, Name: "ecs"}
	opts := emit.DefaultOptions()
	opts.Framework = markers.Framework

	r := &generator.Runner{
		Host:     h,
		Stages:   generator.DefaultRegistry(markers),
		Options:  opts,
		Workers:  4,
		InitFile: true,
	}
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	var names []string
	for _, u := range res.Units {
		names = append(names, filepath.Base(u.Path()))
	}
	assert.Equal(t, []string{
		"damageable_Damageable_Capability.gen.go",
		emit.RegistryFile,
		"shield_Shield_Capability.gen.go",
		"state_TurretMesh_ManagedComponent.gen.go",
		"state_TurretState_CollectionComponent.gen.go",
		"targetable_Targetable_Capability.gen.go",
		"tower_TowerAuthoring_Authoring.gen.go",
		"tower_Tower_Behavior.gen.go",
		"turret_Turret_Capability.gen.go",
	}, names)

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, "ECSGEN01", res.Diagnostics[0].Descriptor.Code)
	assert.Equal(t, "local.go", filepath.Base(res.Diagnostics[0].Location.File))
}

func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files["go.mod"] = "module example.com/bad\n\ngo 1.25\n"
	files["ecs/ecs.go"] = "package ecs\n\ntype Capability interface{ Entity() int }\n"
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestShapeProblems(t *testing.T) {
	requireGo(t)
	root := writeModule(t, map[string]string{"bad/bad.go": `package bad

import "example.com/bad/ecs"

//ecs:partial
type ByValue interface {
	ecs.Capability
	//ecs:in amount
	Hit(amount float32)
}

//ecs:partial
type TwoResults interface {
	ecs.Capability
	Load() (int, error)
}

//ecs:partial
type Mismatch interface {
	ecs.Capability
	//ecs:get
	Speed() float32
	//ecs:set
	SetSpeed(v int)
}

//ecs:partial
type RefByValue interface {
	ecs.Capability
	//ecs:get
	//ecs:ref
	Armor() int
}

//ecs:partial
type Fine interface {
	ecs.Capability
	//ecs:get
	GetSpeed() float32
	//ecs:set
	SetSpeed(v float32)
}
`})
	h, err := gohost.Load(context.Background(), gohost.Config{Dir: root})
	require.NoError(t, err)

	tests := []struct {
		name string
		want string
	}{
		{"ByValue", "parameter amount of Hit is passed by in but is not a pointer"},
		{"TwoResults", "method Load has 2 results"},
		{"Mismatch", "accessors of Speed disagree on its type"},
		{"RefByValue", "property Armor returns by reference but its type is not a pointer"},
		{"Fine", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, err := h.DeclaredSymbol(declNamed(t, h, tt.name))
			require.NoError(t, err)
			iface, err := ir.ExtractInterface(context.Background(), sym, ir.Options{Root: "example.com/bad/ecs.Capability"})
			if tt.want == "" {
				require.NoError(t, err)
				require.Len(t, iface.Properties, 1)
				assert.Equal(t, "Speed", iface.Properties[0].Name)
				assert.Equal(t, "GetSpeed", iface.Properties[0].Getter)
				return
			}
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadCancelled(t *testing.T) {
	requireGo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gohost.Load(ctx, gohost.Config{Dir: testutil.Testdata(t, "gomod")})
	assert.Error(t, err)
}
