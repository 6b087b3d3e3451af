package oscore

import "github.com/mjoldfield/edhoc-oscore-go/pkg/common"

// ReplayWindow is the ordered-PIV-array anti-replay window of spec §4.15.
type ReplayWindow struct {
	window           []uint64 // ascending: window[0] smallest, window[len-1] largest
	seqNumZeroRecv   bool
}

// NewReplayWindow creates a zeroed window of the given width.
func NewReplayWindow(size int) ReplayWindow {
	return ReplayWindow{window: make([]uint64, size)}
}

// Reinit fills the window with n, n-1, n-2, ... clamped at 0, and marks
// PIV 0 as already received — only strictly higher PIVs than n will be
// accepted afterward.
func (w *ReplayWindow) Reinit(n uint64) {
	for i := range w.window {
		v := int64(n) - int64(i)
		if v < 0 {
			v = 0
		}
		w.window[len(w.window)-1-i] = uint64(v)
	}
	w.seqNumZeroRecv = true
}

// IsValid reports whether piv would be accepted without mutating state.
func (w ReplayWindow) IsValid(piv uint64) bool {
	if len(w.window) == 0 {
		return false
	}
	if piv == 0 {
		return w.window[0] == 0 && !w.seqNumZeroRecv
	}
	last := w.window[len(w.window)-1]
	first := w.window[0]
	if piv > last {
		return true
	}
	if piv < first {
		return false
	}
	for _, v := range w.window {
		if v == piv {
			return false
		}
	}
	return true
}

// Update records piv as received, sliding the window as needed. Callers
// must call IsValid first; Update does not re-check validity.
func (w *ReplayWindow) Update(piv uint64) {
	if piv == 0 {
		w.seqNumZeroRecv = true
		return
	}
	n := len(w.window)
	if piv > w.window[n-1] {
		copy(w.window, w.window[1:])
		w.window[n-1] = piv
		return
	}
	insertAt := n - 1
	for insertAt > 0 && w.window[insertAt] > piv {
		insertAt--
	}
	copy(w.window, w.window[1:insertAt+1])
	w.window[insertAt] = piv
}

// ValidateAndUpdate checks piv and, if valid, updates the window, mirroring
// how SYNCHRONIZED-state inbound processing uses the window (spec §4.16).
func (w *ReplayWindow) ValidateAndUpdate(piv uint64) error {
	if !w.IsValid(piv) {
		return common.Newf(common.ErrOscoreReplayWindowProtectionError, "piv %d rejected by replay window", piv)
	}
	w.Update(piv)
	return nil
}
