package collection

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"reportd/internal/report"
)

// Prefs are the session-global query preferences shared by every panel and
// by the export compiler.
type Prefs struct {
	// Start and End bound the global time range in epoch milliseconds.
	// Zero means unset.
	Start int64 `json:"start"`
	End   int64 `json:"end"`

	Timezone     string `json:"timezone"`
	DateFormat   string `json:"dateFormat"`
	Milliseconds bool   `json:"milliseconds"`

	// ExportEmail, when set, asks the export backend to mail the result.
	ExportEmail string `json:"exportEmail,omitempty"`

	// WalletsMts is the snapshot timestamp for the wallets panel, which
	// is timestamp-bounded rather than paginated.
	WalletsMts int64 `json:"walletsMts,omitempty"`
}

// Session composes one store per paginated panel with the global prefs.
// All mutation goes through session methods under one mutex, so transitions
// apply one at a time in call order and no store is ever shared between two
// in-flight transitions.
type Session struct {
	ID uuid.UUID

	mu     sync.Mutex
	stores map[report.PanelType]*Store
	prefs  Prefs
}

// NewSession creates a session with an initial store for every registered
// panel. The timestamp-bounded wallets panel gets one too: its window never
// moves, but filter and reset actions must land on its own state, never on
// another panel's.
func NewSession() *Session {
	stores := make(map[report.PanelType]*Store)
	for _, t := range report.Panels() {
		stores[t] = NewStore(t)
	}
	return &Session{
		ID:     uuid.New(),
		stores: stores,
	}
}

func (s *Session) store(panel report.PanelType) *Store {
	st, ok := s.stores[panel]
	if !ok {
		// Only unregistered panel types land here; they resolve to
		// ledgers, mirroring the panel spec fallback.
		st = s.stores[report.Ledgers]
	}
	return st
}

// Update applies a fetch response to a panel.
func (s *Session) Update(panel report.PanelType, batch []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(panel).Update(batch)
}

// FetchFail clears a panel's pending fetch after a failed request.
func (s *Session) FetchFail(panel report.PanelType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(panel).FetchFail()
}

// FetchNext steps a panel forward and reports whether a server fetch is now
// required. While a fetch is already pending the step is refused: the window
// must not advance twice for one batch.
func (s *Session) FetchNext(panel report.PanelType, page int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.store(panel)
	if st.Window.PageLoading {
		return false
	}
	return st.FetchNext(page)
}

// FetchPrev steps a panel back one batch.
func (s *Session) FetchPrev(panel report.PanelType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(panel).FetchPrev()
}

// JumpPage positions a panel on a page of buffered data.
func (s *Session) JumpPage(panel report.PanelType, page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(panel).JumpPage(page)
}

// AddFilter narrows a panel's scope by one filter value.
func (s *Session) AddFilter(panel report.PanelType, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(panel).AddFilter(v)
}

// RemoveFilter widens a panel's scope by one filter value.
func (s *Session) RemoveFilter(panel report.PanelType, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(panel).RemoveFilter(v)
}

// SetFilters replaces a panel's scope.
func (s *Session) SetFilters(panel report.PanelType, vs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(panel).SetFilters(vs)
}

// Refresh reinitializes one panel for a clean refetch.
func (s *Session) Refresh(panel report.PanelType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store(panel).Reset()
}

// SetTimeRange changes the global time range. All buffered data was fetched
// under the old range, so every store resets.
func (s *Session) SetTimeRange(start, end int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Start = start
	s.prefs.End = end
	for _, st := range s.stores {
		st.Reset()
	}
}

// Logout hard-resets the whole session.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.stores {
		st.Reset()
	}
	s.prefs = Prefs{}
}

// SetExportEmail records the destination for emailed exports. An empty value
// clears it, falling back to local save.
func (s *Session) SetExportEmail(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.ExportEmail = email
}

// SetFormatting records the export formatting preferences.
func (s *Session) SetFormatting(timezone, dateFormat string, milliseconds bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.Timezone = timezone
	s.prefs.DateFormat = dateFormat
	s.prefs.Milliseconds = milliseconds
}

// SetWalletsMts records the wallets snapshot timestamp.
func (s *Session) SetWalletsMts(mts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.WalletsMts = mts
}

// Prefs returns a copy of the session preferences.
func (s *Session) Prefs() Prefs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// TargetFilters returns a copy of a panel's current scope.
func (s *Session) TargetFilters(panel report.PanelType) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.store(panel).TargetFilters)
}

// PanelSnapshot is a consistent read of one panel's state.
type PanelSnapshot struct {
	Panel           report.PanelType `json:"panel"`
	Page            []Entry          `json:"page"`
	Offset          int              `json:"offset"`
	PageOffset      int              `json:"pageOffset"`
	PageLoading     bool             `json:"pageLoading"`
	DataReceived    bool             `json:"dataReceived"`
	TotalBuffered   int              `json:"totalBuffered"`
	SmallestMts     int64            `json:"smallestMts"`
	ExistingFilters []string         `json:"existingFilters"`
	TargetFilters   []string         `json:"targetFilters"`
}

// Snapshot returns a copy of a panel's state, including the entries of the
// currently displayed page.
func (s *Session) Snapshot(panel report.PanelType) PanelSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.store(panel)
	return PanelSnapshot{
		Panel:           st.Panel,
		Page:            slices.Clone(st.CurrentSlice()),
		Offset:          st.Window.Offset,
		PageOffset:      st.Window.PageOffset,
		PageLoading:     st.Window.PageLoading,
		DataReceived:    st.DataReceived,
		TotalBuffered:   len(st.Entries),
		SmallestMts:     st.SmallestMts,
		ExistingFilters: slices.Clone(st.ExistingFilters),
		TargetFilters:   slices.Clone(st.TargetFilters),
	}
}
