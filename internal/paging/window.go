// Package paging implements the offset windowing engine shared by every
// report panel. A panel's history arrives in server-fetched batches of up to
// LIMIT records; the window tracks how far into the buffered entries the
// display may advance and whether stepping further requires a new fetch.
package paging

// Window is the pagination state for one panel. It is a value type: every
// transition returns a new Window and never mutates the receiver, so a
// half-applied transition can never be observed.
type Window struct {
	// Offset marks the end of all batches fetched so far. It is the
	// boundary up to which entries are guaranteed present. It only grows,
	// except on a scope reset, which zeroes the whole window.
	Offset int
	// PageOffset is the start index of the currently displayed page
	// within the current fetch window. Only page jumps set it non-zero.
	PageOffset int
	// CurrentEntriesSize is the size of the most recently appended batch.
	// The server may return fewer than LIMIT records near the end of
	// history, so the batch size cannot be assumed.
	CurrentEntriesSize int
	// PageLoading is set while a step past Offset waits on a fetch.
	PageLoading bool
	// NextPage remembers the page requested by a step that needed a
	// fetch; Advance uses it to restore the page position once the batch
	// lands. Zero means no pending page.
	NextPage int
}

// FetchNext advances the window one fetch batch forward. If the buffer
// already holds a full batch beyond Offset the advance is local; otherwise
// PageLoading is raised and the caller must issue a fetch for page, after
// which Advance completes the step.
func (w Window) FetchNext(entriesLen, limit, page int) Window {
	if entriesLen-limit >= w.Offset {
		w.Offset += w.CurrentEntriesSize
		w.PageOffset = 0
		return w
	}
	w.PageLoading = true
	w.NextPage = page
	return w
}

// FetchPrev steps the window one batch backward. Previous batches are always
// buffered (entries are append-only), so this never requires a fetch.
func (w Window) FetchPrev(limit int) Window {
	if w.Offset >= limit {
		w.Offset -= limit
	} else {
		w.Offset = 0
	}
	w.PageOffset = 0
	return w
}

// JumpPage positions the window on a 1-based page of PAGE_SIZE rows over the
// buffered entries. Jumps beyond the buffered range are not detected here;
// the caller owns that check (FetchNext is the only transition that raises
// PageLoading).
func (w Window) JumpPage(limit, pageSize, page int) Window {
	if page < 1 {
		page = 1
	}
	totalOffset := (page - 1) * pageSize
	currentOffset := totalOffset / limit * limit
	if totalOffset < limit {
		// Target page lies in the first fetch window. Clamp Offset to
		// the window boundary covering the page, but never below what
		// is already buffered.
		baseOffset := ceilDiv(page*pageSize, limit) * limit
		if baseOffset < w.Offset {
			w.Offset = baseOffset
		}
		w.PageOffset = totalOffset - currentOffset
		return w
	}
	w.Offset = currentOffset + limit
	w.PageOffset = totalOffset - currentOffset
	return w
}

// Advance applies a freshly appended batch of batchLen records. If a page
// request was pending (FetchNext past the buffer), the page position is
// restored relative to the new window.
func (w Window) Advance(batchLen, limit, pageSize int) Window {
	w.CurrentEntriesSize = batchLen
	w.Offset += batchLen
	w.PageLoading = false
	if w.NextPage > 0 {
		totalOffset := (w.NextPage - 1) * pageSize
		w.PageOffset = totalOffset - totalOffset/limit*limit
		w.NextPage = 0
	} else {
		w.PageOffset = 0
	}
	return w
}

// FetchFail clears a pending fetch without touching the window position.
func (w Window) FetchFail() Window {
	w.PageLoading = false
	w.NextPage = 0
	return w
}

// SliceBounds returns the [lo, hi) range of buffered entries that the
// current page displays. The displayed page always lives inside the most
// recent fetch window.
func (w Window) SliceBounds(entriesLen, limit, pageSize int) (lo, hi int) {
	if w.Offset < limit {
		lo = w.PageOffset
	} else {
		lo = w.Offset - limit + w.PageOffset
	}
	if lo > entriesLen {
		lo = entriesLen
	}
	hi = lo + pageSize
	if hi > entriesLen {
		hi = entriesLen
	}
	return lo, hi
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
