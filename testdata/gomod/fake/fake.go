package fake

type CollectionComponent struct{}

type Capability interface {
	Entity() int
}
