package buffer

// Policy selects which end of the usage-order list victim selection
// consults. Both LRU and MRU are dispatched from the same tagged variant
// rather than two separate replacer implementations (design note, §9):
// the only difference between them is which end of a single doubly-linked
// usage-order list is examined for the first unpinned frame.
type Policy int

const (
	// LRU evicts the least recently touched unpinned frame (the tail of
	// the usage-order list). The general-purpose choice.
	LRU Policy = iota
	// MRU evicts the most recently touched unpinned frame (the head of
	// the usage-order list). Useful for scan-heavy workloads over a
	// working set larger than the pool: the page just touched is the
	// one least likely to be revisited soon.
	MRU
)

func (p Policy) String() string {
	switch p {
	case MRU:
		return "mru"
	default:
		return "lru"
	}
}

// ParsePolicy parses the CLI spelling used across every harness
// (--policy lru|mru), defaulting to LRU for any unrecognized value.
func ParsePolicy(s string) Policy {
	switch s {
	case "mru", "MRU":
		return MRU
	default:
		return LRU
	}
}
