package meteosat

import "iter"

// Walk yields timestamps starting at start (inclusive) and stepping back
// exactly one hour per element. When until is non-nil it is an inclusive
// lower bound: the sequence ends after the last element that is still not
// before *until. With a nil bound the sequence is infinite; callers limit
// it themselves (see the newest-image resolver's attempt budget).
//
// The sequence is pure and restartable: ranging over it twice produces
// identical elements.
func Walk(start Timestamp, until *Timestamp) iter.Seq[Timestamp] {
	return func(yield func(Timestamp) bool) {
		for ts := start; ; ts = ts.Add(-1) {
			if until != nil && ts.Before(*until) {
				return
			}
			if !yield(ts) {
				return
			}
		}
	}
}
