package combat

import (
	"example.com/game/ecs"
	"example.com/game/mathx"
)

//ecs:partial
type Targetable interface {
	ecs.Capability
	TakeDamage(amount float32)
	Position() mathx.Vec3
}
