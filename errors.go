package scanplan

import "github.com/arloliu/scanplan/types"

// Sentinel errors returned while planning. They alias the types package
// sentinels so errors.Is works with either.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrCatalogRequired is returned when NewGroupScan is given a nil catalog.
	ErrCatalogRequired = types.ErrCatalogRequired

	// ErrCatalogUnavailable is returned when partition discovery fails.
	ErrCatalogUnavailable = types.ErrCatalogUnavailable

	// ErrTableNotFound is returned when the catalog has no such table.
	ErrTableNotFound = types.ErrTableNotFound

	// ErrSchemaMismatch is returned when a requested column's family is not in the table.
	ErrSchemaMismatch = types.ErrSchemaMismatch

	// ErrInvalidChildren is returned when Specialize is given children.
	ErrInvalidChildren = types.ErrInvalidChildren

	// ErrNoEndpoints is returned when AssignSlots is given no endpoints.
	ErrNoEndpoints = types.ErrNoEndpoints

	// ErrTooManySlots is returned when more slots than partitions are requested.
	ErrTooManySlots = types.ErrTooManySlots

	// ErrAssignmentInvariant is returned when a strategy produces an incomplete or unfair assignment.
	ErrAssignmentInvariant = types.ErrAssignmentInvariant

	// ErrSlotOutOfRange is returned by SpecificScan for a slot index not in the assignment.
	ErrSlotOutOfRange = types.ErrSlotOutOfRange
)
