package ledger

// ToggleSession applies a click on session n to a day with current completed
// sessions. Sessions complete as a prefix: clicking a session beyond the
// completed count completes everything up to it, clicking a completed one
// rolls back to just before it. The result is clamped to [0, goal].
//
// Callers only expose 1..goal; other values are a precondition violation and
// are clamped rather than rejected.
func ToggleSession(current, n, goal int) int {
	var next int
	if n <= current {
		next = n - 1
	} else {
		next = n
	}
	return clamp(next, 0, goal)
}

// Button is the derived state of one session button.
type Button struct {
	Index   int
	Active  bool
	Enabled bool
	// Final marks the session that completes the daily goal.
	Final bool
}

// Buttons returns exactly goal buttons for a day with current completed
// sessions. Only the next session in sequence and the already completed ones
// are enabled.
func Buttons(current, goal int) []Button {
	if goal < 0 {
		goal = 0
	}
	buttons := make([]Button, goal)
	for i := range buttons {
		idx := i + 1
		buttons[i] = Button{
			Index:   idx,
			Active:  idx <= current,
			Enabled: idx <= current+1 || idx == 1,
			Final:   idx == goal,
		}
	}
	return buttons
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
