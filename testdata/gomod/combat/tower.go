package combat

import "example.com/game/ecs"

//ecs:partial
type Tower struct {
	ecs.Behavior
	Turret
	Shield
}

//ecs:partial
type TowerAuthoring struct {
	ecs.Authoring[Tower]
	Range float32
}
