package combat

import "example.com/game/ecs"

// Damageable takes damage.
//
//ecs:partial
type Damageable interface {
	ecs.Capability
	TakeDamage(amount float32)
	//ecs:get
	Health() float32
	//ecs:set
	SetHealth(v float32)
}
