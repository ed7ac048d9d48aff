package types

// EntityID identifies an entity within a single world. IDs are issued
// sequentially starting at 1 and are never reused after destruction.
type EntityID uint64

// NoEntity is the zero EntityID. It is never issued, and marks the absence
// of a parent.
const NoEntity EntityID = 0
