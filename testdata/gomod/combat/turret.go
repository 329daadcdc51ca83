package combat

import (
	"example.com/game/ecs"
	"example.com/game/mathx"
)

// Turret aims and fires.
//
//ecs:partial
type Turret interface {
	ecs.Capability
	Damageable
	Targetable
	//ecs:in target
	Fire(target *ecs.Entity) bool
	//ecs:ref
	Barrel() *mathx.Vec3
	//ecs:get
	At(slot int) int
	//ecs:set
	SetAt(slot int, v int)
}
