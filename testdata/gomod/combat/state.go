package combat

import (
	"example.com/game/ecs"
	"example.com/game/fake"
)

//ecs:partial
type TurretState struct {
	ecs.CollectionComponent
	Heat float32
}

//ecs:partial
type TurretMesh struct {
	ecs.ManagedComponent
	Mesh string
}

type Plain struct {
	ecs.CollectionComponent
}

//ecs:partial
type Impostor struct {
	fake.CollectionComponent
}
