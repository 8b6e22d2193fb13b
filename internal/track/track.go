// Package track debounces per-frame recognition results. A single frame
// is noisy; an identity only counts once it has been seen on enough
// consecutive frames.
package track

// StabilityTracker is a fixed-size window of recent identifications.
// The identity is stable only when the window is full and every entry
// agrees. Not safe for concurrent use; the kiosk loop owns it.
type StabilityTracker struct {
	window []int64
	size   int
}

// NewStabilityTracker creates a tracker requiring size consecutive
// agreeing frames. Sizes below one are bumped to one.
func NewStabilityTracker(size int) *StabilityTracker {
	if size < 1 {
		size = 1
	}
	return &StabilityTracker{size: size}
}

// Observe records one recognized employee for the current frame and
// reports whether the identity is now stable. A different identity
// restarts the count from scratch.
func (t *StabilityTracker) Observe(employeeID int64) bool {
	if len(t.window) > 0 && t.window[len(t.window)-1] != employeeID {
		t.window = t.window[:0]
	}
	t.window = append(t.window, employeeID)
	if len(t.window) > t.size {
		t.window = t.window[1:]
	}
	return t.stable()
}

// Break clears the window. Called whenever a frame has no recognizable
// face: a gap must restart the count.
func (t *StabilityTracker) Break() {
	t.window = t.window[:0]
}

// Stable reports whether the current window holds one unanimous identity.
func (t *StabilityTracker) Stable() (int64, bool) {
	if !t.stable() {
		return 0, false
	}
	return t.window[0], true
}

func (t *StabilityTracker) stable() bool {
	if len(t.window) < t.size {
		return false
	}
	first := t.window[0]
	for _, id := range t.window[1:] {
		if id != first {
			return false
		}
	}
	return true
}
