// Package arbitration picks the aperture that serves a host access when more
// than one claims it.
package arbitration

// Result is the outcome of one arbitration.
type Result struct {
	Index     int
	HasWinner bool
}

// NoWinner is returned when no aperture claims the access.
var NoWinner = Result{Index: -1}

// LowestIndex returns the lowest index whose entry is set. The priority is
// fixed: slot 0 always beats slot 1, regardless of how the slots were
// programmed.
func LowestIndex(matches []bool) Result {
	for i, m := range matches {
		if m {
			return Result{Index: i, HasWinner: true}
		}
	}

	return NoWinner
}
