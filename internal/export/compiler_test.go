package export_test

import (
	"reflect"
	"testing"

	"reportd/internal/collection"
	"reportd/internal/export"
	"reportd/internal/report"
)

func TestCompile_TwoPanels(t *testing.T) {
	session := collection.NewSession()
	session.SetTimeRange(100, 200)

	req := export.Compile([]report.PanelType{report.Ledgers, report.Trades}, session)

	if len(req.MultiExport) != 2 {
		t.Fatalf("descriptors: got %d, want 2", len(req.MultiExport))
	}
	if req.MultiExport[0].Method != "getLedgersCsv" {
		t.Errorf("method 0: got %q, want %q", req.MultiExport[0].Method, "getLedgersCsv")
	}
	if req.MultiExport[1].Method != "getTradesCsv" {
		t.Errorf("method 1: got %q, want %q", req.MultiExport[1].Method, "getTradesCsv")
	}
	for i, d := range req.MultiExport {
		if d.Start != 100 || d.End != 200 {
			t.Errorf("descriptor %d range: got [%d,%d], want [100,200]", i, d.Start, d.End)
		}
	}
	if req.Email != "" {
		t.Errorf("email: got %q, want absent", req.Email)
	}
}

func TestCompile_EveryPanelHasAMethod(t *testing.T) {
	session := collection.NewSession()

	req := export.Compile(report.Panels(), session)

	if len(req.MultiExport) != len(report.Panels()) {
		t.Fatalf("descriptors: got %d, want %d", len(req.MultiExport), len(report.Panels()))
	}
	for i, d := range req.MultiExport {
		if d.Method == "" {
			t.Errorf("panel %s: empty export method", report.Panels()[i])
		}
	}
}

func TestCompile_RowLimitSkippedForWallets(t *testing.T) {
	session := collection.NewSession()
	session.SetWalletsMts(1700000000000)

	req := export.Compile([]report.PanelType{report.Wallets, report.Ledgers}, session)

	wallets, ledgers := req.MultiExport[0], req.MultiExport[1]
	if wallets.Limit != 0 {
		t.Errorf("wallets limit: got %d, want 0", wallets.Limit)
	}
	if wallets.End != 1700000000000 {
		t.Errorf("wallets end: got %d, want snapshot timestamp", wallets.End)
	}
	if ledgers.Limit != report.Spec(report.Ledgers).QueryLimit {
		t.Errorf("ledgers limit: got %d, want %d", ledgers.Limit, report.Spec(report.Ledgers).QueryLimit)
	}
}

func TestCompile_SymbolFormatting(t *testing.T) {
	session := collection.NewSession()
	session.AddFilter(report.Trades, "btcusd")
	session.AddFilter(report.Ledgers, "usd")
	session.AddFilter(report.PublicFunding, "usd")

	req := export.Compile([]report.PanelType{report.Trades, report.Ledgers, report.PublicFunding}, session)

	if got, want := req.MultiExport[0].Symbol, []string{"tBTCUSD"}; !reflect.DeepEqual(got, want) {
		t.Errorf("trades symbol: got %v, want %v", got, want)
	}
	if got, want := req.MultiExport[1].Symbol, []string{"usd"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ledgers symbol: got %v, want %v", got, want)
	}
	if got, want := req.MultiExport[2].Symbol, []string{"fUSD"}; !reflect.DeepEqual(got, want) {
		t.Errorf("public funding symbol: got %v, want %v", got, want)
	}
}

func TestCompile_EmptyFiltersOmitSymbol(t *testing.T) {
	session := collection.NewSession()

	req := export.Compile([]report.PanelType{report.Trades}, session)

	if req.MultiExport[0].Symbol != nil {
		t.Errorf("symbol: got %v, want omitted", req.MultiExport[0].Symbol)
	}
}

func TestCompile_AuditIDs(t *testing.T) {
	session := collection.NewSession()
	session.SetFilters(report.PositionsAudit, []string{"4412", "9001"})

	req := export.Compile([]report.PanelType{report.PositionsAudit}, session)

	d := req.MultiExport[0]
	if got, want := d.ID, []int64{4412, 9001}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids: got %v, want %v", got, want)
	}
	if d.Symbol != nil {
		t.Errorf("symbol: got %v, want omitted for id-filtered panel", d.Symbol)
	}
}

func TestCompile_MovementFlags(t *testing.T) {
	session := collection.NewSession()

	req := export.Compile([]report.PanelType{report.Withdrawals, report.Deposits, report.FundingPayments}, session)

	w, d, fp := req.MultiExport[0], req.MultiExport[1], req.MultiExport[2]
	if w.Method != "getMovementsCsv" || !w.IsWithdrawals || w.IsDeposits {
		t.Errorf("withdrawals: got %+v", w)
	}
	if d.Method != "getMovementsCsv" || !d.IsDeposits || d.IsWithdrawals {
		t.Errorf("deposits: got %+v", d)
	}
	// funding payments route through the ledgers export with a flag
	if fp.Method != "getLedgersCsv" || !fp.IsMarginFundingPayment {
		t.Errorf("funding payments: got %+v", fp)
	}
}

func TestCompile_UnknownPanelFallsBackToLedgers(t *testing.T) {
	session := collection.NewSession()

	req := export.Compile([]report.PanelType{report.PanelType("mystery")}, session)

	if req.MultiExport[0].Method != "getLedgersCsv" {
		t.Errorf("method: got %q, want ledgers fallback", req.MultiExport[0].Method)
	}
}

func TestCompile_AttachesEmail(t *testing.T) {
	session := collection.NewSession()
	session.SetExportEmail("user@example.com")
	session.SetFormatting("America/Los_Angeles", "YY-MM-DD", true)

	req := export.Compile([]report.PanelType{report.Ledgers}, session)

	if req.Email != "user@example.com" {
		t.Errorf("email: got %q", req.Email)
	}
	d := req.MultiExport[0]
	if d.Timezone != "America/Los_Angeles" || d.DateFormat != "YY-MM-DD" || !d.Milliseconds {
		t.Errorf("formatting: got %+v", d)
	}
}
