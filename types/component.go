package types

// ComponentID identifies a registered component type within a single world.
// IDs are issued sequentially starting at 1, in definition order.
type ComponentID int

// Version is a monotonic change counter. The world keeps one global Version
// plus one per component type; query caches record the versions they were
// computed against to detect staleness.
type Version uint64
