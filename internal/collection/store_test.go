package collection_test

import (
	"fmt"
	"reflect"
	"testing"

	"reportd/internal/collection"
	"reportd/internal/report"
)

// batch fabricates n entries with descending timestamps starting at mts,
// alternating between two currencies.
func batch(n int, mts int64) []collection.Entry {
	coins := []string{"usd", "btc"}
	out := make([]collection.Entry, n)
	for i := range out {
		out[i] = collection.Entry{
			ID:     int64(i + 1),
			Mts:    mts - int64(i),
			Symbol: coins[i%2],
			Raw:    []byte(fmt.Sprintf(`{"id":%d}`, i+1)),
		}
	}
	return out
}

func TestUpdate_AppendsAndMergesFilters(t *testing.T) {
	s := collection.NewStore(report.Deposits) // LIMIT 25, PAGE_SIZE 25

	s.Update(batch(25, 1000))

	if !s.DataReceived {
		t.Error("dataReceived should be set")
	}
	if len(s.Entries) != 25 {
		t.Fatalf("entries: got %d, want 25", len(s.Entries))
	}
	if s.Window.Offset != 25 {
		t.Errorf("offset: got %d, want 25", s.Window.Offset)
	}
	if s.Window.PageLoading {
		t.Error("pageLoading should clear on update")
	}
	if want := []string{"btc", "usd"}; !reflect.DeepEqual(s.ExistingFilters, want) {
		t.Errorf("existingFilters: got %v, want %v", s.ExistingFilters, want)
	}
	// oldest timestamp in the batch is 1000-24; boundary is one below it
	if s.SmallestMts != 975 {
		t.Errorf("smallestMts: got %d, want 975", s.SmallestMts)
	}
}

func TestUpdate_SecondBatchExtends(t *testing.T) {
	s := collection.NewStore(report.Deposits)
	s.Update(batch(25, 1000))

	s.Update(batch(25, 900))

	if len(s.Entries) != 50 {
		t.Fatalf("entries: got %d, want 50", len(s.Entries))
	}
	if s.Window.Offset != 50 {
		t.Errorf("offset: got %d, want 50", s.Window.Offset)
	}
	if s.SmallestMts != 875 {
		t.Errorf("smallestMts: got %d, want 875", s.SmallestMts)
	}
}

func TestUpdate_EmptyBatchIsIdempotent(t *testing.T) {
	s := collection.NewStore(report.Deposits)
	s.Update(batch(25, 1000))
	wantOffset := s.Window.Offset
	wantLen := len(s.Entries)

	// "no more data" heartbeat, twice
	s.Update(nil)
	s.Update(nil)

	if !s.DataReceived {
		t.Error("dataReceived should stay set")
	}
	if len(s.Entries) != wantLen {
		t.Errorf("entries: got %d, want %d", len(s.Entries), wantLen)
	}
	if s.Window.Offset != wantOffset {
		t.Errorf("offset: got %d, want %d", s.Window.Offset, wantOffset)
	}
}

func TestFetchFail_KeepsBufferedEntries(t *testing.T) {
	s := collection.NewStore(report.Deposits)
	s.Update(batch(25, 1000))
	s.FetchNext(0) // buffer exhausted, raises pageLoading

	s.FetchFail()

	if s.Window.PageLoading {
		t.Error("pageLoading should clear")
	}
	if len(s.Entries) != 25 {
		t.Errorf("fetch failure must not roll back entries: got %d, want 25", len(s.Entries))
	}
	if s.Window.Offset != 25 {
		t.Errorf("offset: got %d, want 25", s.Window.Offset)
	}
}

func TestFetchNext_SignalsFetchRequirement(t *testing.T) {
	s := collection.NewStore(report.Deposits)
	s.Update(batch(25, 1000))
	s.Update(batch(25, 900))
	s.FetchPrev() // back to offset 25 with 50 buffered

	if s.FetchNext(0) {
		t.Error("next window is buffered, no fetch should be needed")
	}
	if s.FetchNext(0) != true {
		t.Error("past the buffer a fetch should be needed")
	}
}

func TestScopeChange_ClearsBuffer(t *testing.T) {
	scopeChanges := map[string]func(*collection.Store){
		"add filter":    func(s *collection.Store) { s.AddFilter("eth") },
		"remove filter": func(s *collection.Store) { s.RemoveFilter("usd") },
		"set filters":   func(s *collection.Store) { s.SetFilters([]string{"btc"}) },
		"reset":         func(s *collection.Store) { s.Reset() },
	}
	for name, change := range scopeChanges {
		t.Run(name, func(t *testing.T) {
			s := collection.NewStore(report.Deposits)
			s.AddFilter("usd")
			s.Update(batch(25, 1000))
			s.JumpPage(1)

			change(s)

			if len(s.Entries) != 0 {
				t.Errorf("entries: got %d, want 0", len(s.Entries))
			}
			if s.Window.Offset != 0 || s.Window.PageOffset != 0 {
				t.Errorf("window: got offset=%d pageOffset=%d, want zeros",
					s.Window.Offset, s.Window.PageOffset)
			}
			if s.DataReceived {
				t.Error("dataReceived should reset with the scope")
			}
		})
	}
}

func TestFilterChange_PreservesCatalog(t *testing.T) {
	s := collection.NewStore(report.Deposits)
	s.Update(batch(25, 1000))

	s.AddFilter("usd")

	if want := []string{"btc", "usd"}; !reflect.DeepEqual(s.ExistingFilters, want) {
		t.Errorf("existingFilters: got %v, want %v", s.ExistingFilters, want)
	}
	if want := []string{"usd"}; !reflect.DeepEqual(s.TargetFilters, want) {
		t.Errorf("targetFilters: got %v, want %v", s.TargetFilters, want)
	}
}

func TestAddFilter_DuplicateIsNoOp(t *testing.T) {
	s := collection.NewStore(report.Deposits)
	s.AddFilter("usd")
	s.Update(batch(25, 1000))

	s.AddFilter("usd")

	// a no-op filter change must not reset pagination
	if len(s.Entries) != 25 {
		t.Errorf("entries: got %d, want 25", len(s.Entries))
	}
}

func TestRemoveFilter_AbsentIsNoOp(t *testing.T) {
	s := collection.NewStore(report.Deposits)
	s.AddFilter("usd")
	s.Update(batch(25, 1000))

	s.RemoveFilter("eth")

	if len(s.Entries) != 25 {
		t.Errorf("entries: got %d, want 25", len(s.Entries))
	}
}

func TestReset_DropsCatalogs(t *testing.T) {
	s := collection.NewStore(report.Deposits)
	s.AddFilter("usd")
	s.Update(batch(25, 1000))

	s.Reset()

	if len(s.ExistingFilters) != 0 || len(s.TargetFilters) != 0 {
		t.Errorf("catalogs should drop on full reset: existing=%v target=%v",
			s.ExistingFilters, s.TargetFilters)
	}
	if s.SmallestMts != 0 {
		t.Errorf("smallestMts: got %d, want 0", s.SmallestMts)
	}
}

func TestCurrentSlice(t *testing.T) {
	s := collection.NewStore(report.Deposits)
	s.Update(batch(25, 1000))
	s.Update(batch(25, 900))

	page := s.CurrentSlice()

	if len(page) != 25 {
		t.Fatalf("page: got %d entries, want 25", len(page))
	}
	// second window: the page starts at the 26th buffered entry
	if page[0].Mts != 900 {
		t.Errorf("first entry mts: got %d, want 900", page[0].Mts)
	}
}
