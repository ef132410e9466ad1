package strategy

import "fmt"

// fairBounds checks the slot preconditions and returns the per-slot count band.
func fairBounds(slots, partitions int) (floor, ceil int, err error) {
	if slots == 0 {
		return 0, 0, ErrNoEndpoints
	}
	if slots > partitions {
		return 0, 0, fmt.Errorf("%w: %d slots for %d partitions", ErrTooManySlots, slots, partitions)
	}

	floor = partitions / slots
	ceil = floor
	if partitions%slots != 0 {
		ceil++
	}

	return floor, ceil, nil
}

// verifyAssignment checks completeness and fairness of a computed assignment.
func verifyAssignment(slots [][]int, partitions, floor, ceil int) error {
	seen := make([]bool, partitions)
	total := 0
	for s, list := range slots {
		if n := len(list); n < floor || n > ceil {
			return fmt.Errorf("%w: slot %d holds %d partitions, want [%d, %d]", ErrAssignmentInvariant, s, n, floor, ceil)
		}
		for _, idx := range list {
			if idx < 0 || idx >= partitions {
				return fmt.Errorf("%w: slot %d references partition %d", ErrAssignmentInvariant, s, idx)
			}
			if seen[idx] {
				return fmt.Errorf("%w: partition %d assigned twice", ErrAssignmentInvariant, idx)
			}
			seen[idx] = true
			total++
		}
	}
	if total != partitions {
		return fmt.Errorf("%w: %d of %d partitions assigned", ErrAssignmentInvariant, total, partitions)
	}

	return nil
}
