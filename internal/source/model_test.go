package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTypeRef(t *testing.T) {
	tests := []struct {
		in        string
		qualifier string
		name      string
		args      int
	}{
		{"Capability", "", "Capability", 0},
		{"ecs.Capability", "ecs", "Capability", 0},
		{"ecs.Authoring[Turret]", "ecs", "Authoring", 1},
		{"Pair[a.B, map[string]int]", "", "Pair", 2},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ref := ParseTypeRef(tt.in)
			assert.Equal(t, tt.qualifier, ref.Qualifier)
			assert.Equal(t, tt.name, ref.SimpleName())
			assert.Len(t, ref.Args, tt.args)
			assert.Equal(t, tt.in, ref.String())
		})
	}
}

func TestParseTypeName(t *testing.T) {
	tn := ParseTypeName("map[example.com/game/ecs.Entity][]*example.com/game/combat.Target")
	assert.Equal(t, []Package{
		{Path: "example.com/game/ecs", Name: "ecs"},
		{Path: "example.com/game/combat", Name: "combat"},
	}, tn.Refs)

	assert.Empty(t, ParseTypeName("int").Refs)
	assert.Equal(t, "example.com/game/ecs.Entity", ParseTypeName("*example.com/game/ecs.Entity").Elem().Full)
}

func TestAccessOrdering(t *testing.T) {
	assert.Equal(t, AccessPrivate, MinAccess(AccessPublic, AccessPrivate))
	assert.Equal(t, AccessInternal, MinAccess(AccessInternal, AccessPublic))
	assert.Equal(t, AccessInternal, ParseAccess("internal"))
	assert.Equal(t, AccessPublic, ParseAccess(""))
}

func TestDeclarationPaths(t *testing.T) {
	d := &Declaration{Location: Location{File: "game/combat/turret.go", Line: 3}}
	assert.Equal(t, "game/combat", d.Dir())
	assert.Equal(t, "turret", d.FileStem())
	assert.Equal(t, "game/combat/turret.go:3:0", d.Location.String())
}

func TestTypeSymbolNames(t *testing.T) {
	root := &TypeSymbol{Name: "Capability", Package: Package{Path: "martianoff/ecs", Name: "ecs"}}
	turret := &TypeSymbol{Name: "Turret", Package: Package{Path: "example.com/game/combat"}, Interfaces: []*TypeSymbol{root}}
	assert.Equal(t, "example.com/game/combat.Turret", turret.FullName())
	assert.True(t, turret.Inherits("martianoff/ecs.Capability"))
	assert.False(t, root.Inherits("martianoff/ecs.Capability"))

	inst := &TypeSymbol{Name: "Authoring", Package: root.Package, Origin: "martianoff/ecs.Authoring"}
	assert.Equal(t, "martianoff/ecs.Authoring", inst.OriginName())
}
