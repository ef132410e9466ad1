package strategy

import "github.com/arloliu/scanplan/types"

// Errors returned by the built-in strategies. They alias the types sentinels so
// callers may match either.
var (
	// ErrNoEndpoints indicates that no slots were provided for assignment.
	ErrNoEndpoints = types.ErrNoEndpoints

	// ErrTooManySlots indicates more slots than partitions.
	ErrTooManySlots = types.ErrTooManySlots

	// ErrAssignmentInvariant indicates a computed assignment is incomplete or unfair.
	ErrAssignmentInvariant = types.ErrAssignmentInvariant
)
