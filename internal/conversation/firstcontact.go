package conversation

import "time"

// FirstContactToday reports whether now is the sender's first contact since
// local midnight. Both instants are compared as calendar dates in the
// clinic's timezone; the tracker's process timezone never participates.
// A zero last-interaction time means the sender has never been seen.
func FirstContactToday(lastInteractionAt time.Time, loc *time.Location, now time.Time) bool {
	if lastInteractionAt.IsZero() {
		return true
	}

	lastLocal := lastInteractionAt.In(loc)
	nowLocal := now.In(loc)

	ly, lm, ld := lastLocal.Date()
	ny, nm, nd := nowLocal.Date()
	if ly != ny {
		return ly < ny
	}
	if lm != nm {
		return lm < nm
	}
	return ld < nd
}
