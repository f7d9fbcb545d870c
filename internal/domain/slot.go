package domain

// DefaultCapacity is the slot count of a standard rack enclosure
const DefaultCapacity = 42

// ClampSlot maps any integer into the closed range [1, capacity]
func ClampSlot(u, capacity int) int {
	if capacity < 1 {
		capacity = 1
	}
	if u < 1 {
		return 1
	}
	if u > capacity {
		return capacity
	}
	return u
}

// RangesOverlap reports whether the inclusive ranges [startA, endA] and
// [startB, endB] share at least one slot. Touching ranges overlap.
func RangesOverlap(startA, endA, startB, endB int) bool {
	return startA <= endB && startB <= endA
}
