package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the scanplan library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// Components wrap external errors with context using fmt.Errorf("%s: %w", msg, err).

// Planning errors - returned while building a plan node.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCatalogRequired is returned when no partition catalog is supplied.
	ErrCatalogRequired = errors.New("partition catalog is required")

	// ErrCatalogUnavailable is returned when partition discovery fails.
	// Planning cannot continue without a partition list.
	ErrCatalogUnavailable = errors.New("partition catalog unavailable")

	// ErrTableNotFound is returned when the catalog has no such table.
	ErrTableNotFound = errors.New("table not found")

	// ErrSchemaMismatch is returned when a requested column is not part of the table schema.
	ErrSchemaMismatch = errors.New("column not present in table schema")

	// ErrInvalidChildren is returned when a leaf scan node is given children.
	ErrInvalidChildren = errors.New("scan node does not accept children")
)

// Assignment errors - returned by slot strategies.
var (
	// ErrNoEndpoints is returned when no execution slots are supplied.
	ErrNoEndpoints = errors.New("no endpoints available for assignment")

	// ErrTooManySlots is returned when more slots than partitions are requested.
	ErrTooManySlots = errors.New("slot count exceeds partition count")

	// ErrAssignmentInvariant is returned when a computed assignment violates
	// completeness or fairness.
	ErrAssignmentInvariant = errors.New("assignment invariant violated")

	// ErrSlotOutOfRange is returned when a slot index does not exist in an assignment.
	ErrSlotOutOfRange = errors.New("slot index out of range")
)

// Collaborator errors - returned by sources and publishers.
var (
	// ErrClusterStatusUnavailable is returned when cluster status cannot be read.
	// It is recoverable: estimators fall back to default heuristics.
	ErrClusterStatusUnavailable = errors.New("cluster status unavailable")

	// ErrPublishFailed is returned when publishing an assignment to NATS KV fails.
	ErrPublishFailed = errors.New("failed to publish assignment")

	// ErrNoKeysFound is returned when NATS KV returns no keys (expected condition).
	ErrNoKeysFound = errors.New("no keys found")
)

// SchemaMismatchError reports a requested column whose family is missing from the table.
type SchemaMismatchError struct {
	Table  string
	Column string
	Family string
}

// Error implements error.
func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("the column family '%s' (column %q) does not exist in table: %s",
		e.Family, e.Column, e.Table)
}

// Unwrap lets errors.Is match ErrSchemaMismatch.
func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// IsNoKeysFoundError checks if an error indicates that no keys were found in NATS KV.
//
// This function handles NATS-specific "no keys found" errors which may come as:
//   - Direct error: "nats: no keys found"
//   - Wrapped error: "failed to list KV keys: nats: no keys found"
//
// Parameters:
//   - err: The error to check
//
// Returns:
//   - bool: true if the error indicates no keys were found, false otherwise
func IsNoKeysFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoKeysFound) {
		return true
	}

	return strings.Contains(err.Error(), "no keys found")
}
