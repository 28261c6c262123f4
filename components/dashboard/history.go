package dashboard

// DefaultHistoryLimit bounds the number of undo snapshots kept per store.
const DefaultHistoryLimit = 100

// History holds past and future layout snapshots with linear undo/redo semantics.
// Snapshots are deep copies; callers never share widget slices with the history.
type History struct {
	past   []DashboardLayout
	future []DashboardLayout
	limit  int
}

// NewHistory builds a history keeping at most limit past snapshots (0 means DefaultHistoryLimit).
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Record captures the pre-mutation state and clears the redo stack.
func (h *History) Record(current DashboardLayout) {
	h.past = append(h.past, current.Clone())
	if len(h.past) > h.limit {
		h.past = append([]DashboardLayout(nil), h.past[len(h.past)-h.limit:]...)
	}
	h.future = nil
}

// Undo pops the most recent snapshot and pushes current onto the redo stack.
func (h *History) Undo(current DashboardLayout) (DashboardLayout, bool) {
	if len(h.past) == 0 {
		return DashboardLayout{}, false
	}
	last := len(h.past) - 1
	prev := h.past[last]
	h.past = h.past[:last]
	h.future = append(h.future, current.Clone())
	return prev, true
}

// Redo pops the most recent undone snapshot and pushes current onto the past stack.
func (h *History) Redo(current DashboardLayout) (DashboardLayout, bool) {
	if len(h.future) == 0 {
		return DashboardLayout{}, false
	}
	last := len(h.future) - 1
	next := h.future[last]
	h.future = h.future[:last]
	h.past = append(h.past, current.Clone())
	return next, true
}

// Clear empties both stacks.
func (h *History) Clear() {
	h.past = nil
	h.future = nil
}

// CanUndo reports whether Undo would change state.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether Redo would change state.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Depth returns the sizes of the past and future stacks.
func (h *History) Depth() (past, future int) { return len(h.past), len(h.future) }

// Past returns copies of the past snapshots, oldest first.
func (h *History) Past() []DashboardLayout { return cloneLayouts(h.past) }

// Future returns copies of the future snapshots, oldest undo last.
func (h *History) Future() []DashboardLayout { return cloneLayouts(h.future) }

func cloneLayouts(in []DashboardLayout) []DashboardLayout {
	out := make([]DashboardLayout, len(in))
	for i, l := range in {
		out[i] = l.Clone()
	}
	return out
}
