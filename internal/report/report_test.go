package report_test

import (
	"testing"

	"reportd/internal/report"
)

func TestSpec_TotalOverPanelSet(t *testing.T) {
	for _, panel := range report.Panels() {
		spec := report.Spec(panel)
		if spec.ExportMethod == "" {
			t.Errorf("%s: empty export method", panel)
		}
		if spec.DataMethod == "" {
			t.Errorf("%s: empty data method", panel)
		}
		if spec.TimestampBounded {
			if spec.QueryLimit != 0 {
				t.Errorf("%s: timestamp-bounded panel must not carry a query limit", panel)
			}
			continue
		}
		if spec.QueryLimit <= 0 {
			t.Errorf("%s: query limit must be positive, got %d", panel, spec.QueryLimit)
		}
		if spec.PageSize <= 0 || spec.PageSize > spec.QueryLimit {
			t.Errorf("%s: page size %d out of range for limit %d", panel, spec.PageSize, spec.QueryLimit)
		}
		if spec.MtsField == "" {
			t.Errorf("%s: empty mts field", panel)
		}
	}
}

func TestSpec_UnknownFallsBackToLedgers(t *testing.T) {
	got := report.Spec(report.PanelType("brand_new_panel"))
	want := report.Spec(report.Ledgers)
	if got != want {
		t.Errorf("unknown panel spec: got %+v, want the ledgers spec", got)
	}
	if report.Known("brand_new_panel") {
		t.Error("unknown panel must not report as known")
	}
}

func TestPanels_StableAndComplete(t *testing.T) {
	a, b := report.Panels(), report.Panels()
	if len(a) != 16 {
		t.Errorf("panel count: got %d, want 16", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("panel order not stable at %d: %s vs %s", i, a[i], b[i])
		}
	}
	for _, panel := range a {
		if !report.Known(panel) {
			t.Errorf("%s: listed but not known", panel)
		}
	}
}

func TestPaginated_ExcludesSnapshots(t *testing.T) {
	for _, panel := range report.Paginated() {
		if report.Spec(panel).TimestampBounded {
			t.Errorf("%s: timestamp-bounded panel listed as paginated", panel)
		}
	}
	if len(report.Paginated()) != len(report.Panels())-1 {
		t.Errorf("paginated count: got %d, want %d", len(report.Paginated()), len(report.Panels())-1)
	}
}

func TestMovementPanelsShareMethodWithDistinctFlags(t *testing.T) {
	w, d := report.Spec(report.Withdrawals), report.Spec(report.Deposits)
	if w.ExportMethod != d.ExportMethod {
		t.Errorf("movement panels should share an export method: %q vs %q", w.ExportMethod, d.ExportMethod)
	}
	if !w.IsWithdrawals || w.IsDeposits || !d.IsDeposits || d.IsWithdrawals {
		t.Error("movement flags must distinguish the two panels")
	}
}
