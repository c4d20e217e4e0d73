package services

import "github.com/lynxlsy/GANGBOYZ-DEMO-sub002/internal/core/domain"

// EditHistory is a linear undo stack of transforms with a cursor.
// Pushing after an undo discards the undone entries.
type EditHistory struct {
	entries []domain.Transform
	index   int
}

// NewEditHistory creates a history holding the initial transform.
func NewEditHistory(initial domain.Transform) *EditHistory {
	return &EditHistory{
		entries: []domain.Transform{initial},
		index:   0,
	}
}

// Push records t after the cursor. Entries beyond the cursor are dropped.
// Pushing a transform equal to the current one is ignored and reports false.
func (h *EditHistory) Push(t domain.Transform) bool {
	if len(h.entries) > 0 && h.entries[h.index].Equal(t) {
		return false
	}
	h.entries = append(h.entries[:h.index+1], t)
	h.index = len(h.entries) - 1
	return true
}

// Current returns the snapshot at the cursor.
func (h *EditHistory) Current() domain.Transform {
	if len(h.entries) == 0 {
		return domain.Transform{}
	}
	return h.entries[h.index]
}

// Undo moves the cursor back one entry and returns that snapshot.
func (h *EditHistory) Undo() domain.Transform {
	if h.CanUndo() {
		h.index--
	}
	return h.Current()
}

// Redo moves the cursor forward one entry and returns that snapshot.
func (h *EditHistory) Redo() domain.Transform {
	if h.CanRedo() {
		h.index++
	}
	return h.Current()
}

// CanUndo reports whether an earlier entry exists.
func (h *EditHistory) CanUndo() bool {
	return h.index > 0
}

// CanRedo reports whether an undone entry exists.
func (h *EditHistory) CanRedo() bool {
	return h.index < len(h.entries)-1
}

// Len returns the number of entries.
func (h *EditHistory) Len() int {
	return len(h.entries)
}

// Index returns the cursor position.
func (h *EditHistory) Index() int {
	return h.index
}
