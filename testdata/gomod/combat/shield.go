package combat

import (
	core "example.com/game/ecs"
	"example.com/game/fake"
)

//ecs:partial
type Shield interface {
	core.Capability
	Block() bool
}

// Decoy names a Capability that is not the framework's.
//
//ecs:partial
type Decoy interface {
	fake.Capability
}
