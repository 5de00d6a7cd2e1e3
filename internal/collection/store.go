// Package collection holds the per-panel collection stores and the session
// that composes them. A store is the state machine behind one paginated
// report panel: the append-only entry log, the pagination window, the filter
// catalogs, and the fetch-older boundary. Every transition that changes the
// query scope (filters or time range) zeroes the buffered entries and the
// window; that invariant is the only thing standing between the user and a
// stale page from a different query.
package collection

import (
	"slices"

	"reportd/internal/paging"
	"reportd/internal/report"
	"reportd/internal/symbols"
)

// Store is the collection state for one panel. Exactly one store exists per
// panel per session and it is mutated only under the owning session's
// dispatch lock.
type Store struct {
	Panel  report.PanelType
	Window paging.Window

	// Entries is the append-only log of all records fetched this session,
	// in fetch order (newest history batch first, not chronological).
	Entries []Entry

	// ExistingFilters is every filter value observed in Entries so far,
	// sorted and deduplicated. It only grows; a scope reset keeps it so
	// the filter menu does not forget values the user has seen.
	ExistingFilters []string

	// TargetFilters is the user's current query scope. Empty means all.
	TargetFilters []string

	// DataReceived flips on the first fetch response, including an empty
	// one, and drives the loading-vs-content branch upstream.
	DataReceived bool

	// SmallestMts is the oldest business timestamp fetched so far minus
	// one, the exclusive end boundary for the next fetch-older query.
	SmallestMts int64
}

// NewStore returns the initial state for a panel.
func NewStore(panel report.PanelType) *Store {
	return &Store{Panel: panel}
}

// Update applies a fetch response. An empty batch only acknowledges that the
// fetch completed ("no more data"); a non-empty batch is appended, its filter
// values merged into the catalog, and the window advanced.
func (s *Store) Update(batch []Entry) {
	s.DataReceived = true
	if len(batch) == 0 {
		return
	}

	spec := report.Spec(s.Panel)
	smallest := batch[0].Mts
	for _, e := range batch {
		s.ExistingFilters = symbols.MergeSorted(s.ExistingFilters, e.Symbol)
		if e.Mts < smallest {
			smallest = e.Mts
		}
	}
	s.SmallestMts = smallest - 1
	s.Entries = append(s.Entries, batch...)
	s.Window = s.Window.Advance(len(batch), spec.QueryLimit, spec.PageSize)
}

// FetchFail clears a pending fetch. Buffered entries are not rolled back.
func (s *Store) FetchFail() {
	s.Window = s.Window.FetchFail()
}

// FetchNext steps forward one batch. It reports whether a server fetch is
// now required (the buffer did not cover the next window).
func (s *Store) FetchNext(page int) bool {
	spec := report.Spec(s.Panel)
	s.Window = s.Window.FetchNext(len(s.Entries), spec.QueryLimit, page)
	return s.Window.PageLoading
}

// FetchPrev steps back one batch. Always local.
func (s *Store) FetchPrev() {
	s.Window = s.Window.FetchPrev(report.Spec(s.Panel).QueryLimit)
}

// JumpPage positions the window on a page of already-buffered data.
func (s *Store) JumpPage(page int) {
	spec := report.Spec(s.Panel)
	s.Window = s.Window.JumpPage(spec.QueryLimit, spec.PageSize, page)
}

// AddFilter appends a filter value to the target scope. Any scope change
// invalidates the buffered entries, so pagination resets to zero while the
// filter catalogs survive.
func (s *Store) AddFilter(v string) {
	if v == "" || slices.Contains(s.TargetFilters, v) {
		return
	}
	s.TargetFilters = append(s.TargetFilters, v)
	s.resetScope()
}

// RemoveFilter drops a filter value from the target scope.
func (s *Store) RemoveFilter(v string) {
	i := slices.Index(s.TargetFilters, v)
	if i < 0 {
		return
	}
	s.TargetFilters = slices.Delete(s.TargetFilters, i, i+1)
	s.resetScope()
}

// SetFilters replaces the target scope wholesale.
func (s *Store) SetFilters(vs []string) {
	s.TargetFilters = slices.Clone(vs)
	s.resetScope()
}

// Reset reinitializes the store completely. Used on refresh, on a global
// time-range change and on logout; unlike a filter change it drops the
// filter catalogs too.
func (s *Store) Reset() {
	*s = *NewStore(s.Panel)
}

// resetScope zeroes everything the buffered entries depend on but keeps the
// filter catalogs: the new scope needs a refetch from offset zero.
func (s *Store) resetScope() {
	s.Window = paging.Window{}
	s.Entries = nil
	s.DataReceived = false
	s.SmallestMts = 0
}

// CurrentSlice returns the entries of the currently displayed page.
func (s *Store) CurrentSlice() []Entry {
	spec := report.Spec(s.Panel)
	lo, hi := s.Window.SliceBounds(len(s.Entries), spec.QueryLimit, spec.PageSize)
	return s.Entries[lo:hi]
}
