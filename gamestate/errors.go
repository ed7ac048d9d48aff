package gamestate

import (
	"github.com/rotisserie/eris"
)

var (
	// ErrForeignEntity is returned when an operation receives an entity id
	// that this world never issued, or a ref minted by another world.
	ErrForeignEntity = eris.New("entity does not belong to this world")

	// ErrEntityDestroyed is returned when a mutating operation targets an
	// entity that has been destroyed. Reads on destroyed entities do not
	// error; they report absence.
	ErrEntityDestroyed = eris.New("entity has been destroyed")

	ErrSelfParent         = eris.New("entity cannot be its own parent")
	ErrCyclicParent       = eris.New("entity cannot be parented into its own subtree")
	ErrComponentNameTaken = eris.New("component name is already defined")
)
