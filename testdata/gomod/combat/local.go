package combat

import "example.com/game/ecs"

func spawn() any {
	//ecs:partial
	type Hidden struct {
		ecs.CollectionComponent
	}
	return Hidden{}
}
