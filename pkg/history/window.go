package history

// Window selects the trailing range of slices a query covers. The zero
// value is an unbounded window reaching back to slice 0; a bounded
// window covers the currentSlice and the n-1 slices before it.
//
// The explicit tag replaces the mixed 0/-1 sentinel conventions that
// tend to grow around "unbounded" integer parameters.
type Window struct {
	n       int
	bounded bool
}

// Fixed returns a bounded trailing window of n slices. n < 1 is
// treated as a one-slice window.
func Fixed(n int) Window {
	if n < 1 {
		n = 1
	}
	return Window{n: n, bounded: true}
}

// Unbounded returns a window covering everything from slice 0 through
// the current slice.
func Unbounded() Window {
	return Window{}
}

// Bounded reports the window size and whether the window is bounded.
func (w Window) Bounded() (int, bool) {
	return w.n, w.bounded
}

// start returns the first slice the window covers at position current.
func (w Window) start(current int) int {
	if !w.bounded {
		return 0
	}
	start := current - w.n + 1
	if start < 0 {
		start = 0
	}
	return start
}

// span returns the number of slices the window actually covers at
// position current (the window is clipped at slice 0).
func (w Window) span(current int) int {
	return current - w.start(current) + 1
}
