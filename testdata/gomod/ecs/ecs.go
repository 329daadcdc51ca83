// Package ecs is a minimal stand-in for the runtime the generator targets.
package ecs

type Entity struct {
	Index   int32
	Version int32
}

// Capability is the root of every capability interface.
type Capability interface {
	Entity() Entity
}

type CollectionComponent struct{}

type ManagedComponent struct{}

type Behavior struct {
	entity Entity
}

func (b Behavior) Entity() Entity { return b.entity }

type Authoring[T any] struct{}
