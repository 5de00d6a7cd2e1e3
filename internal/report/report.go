// Package report defines the closed set of report panels and the per-panel
// query parameters they share: fetch batch size, UI page size, remote method
// names, and filter semantics. Every per-panel lookup in the rest of the
// codebase goes through the single Spec table here, so adding a panel is a
// one-entry change.
package report

// PanelType identifies one independently paginated report panel.
type PanelType string

const (
	Ledgers         PanelType = "ledgers"
	Trades          PanelType = "trades"
	Orders          PanelType = "orders"
	Tickers         PanelType = "tickers"
	Deposits        PanelType = "deposits"
	Withdrawals     PanelType = "withdrawals"
	Positions       PanelType = "positions"
	PositionsActive PanelType = "positions_active"
	PositionsAudit  PanelType = "positions_audit"
	FundingOffers   PanelType = "funding_offers"
	FundingLoans    PanelType = "funding_loans"
	FundingCredits  PanelType = "funding_credits"
	FundingPayments PanelType = "funding_payments"
	PublicTrades    PanelType = "public_trades"
	PublicFunding   PanelType = "public_funding"
	Wallets         PanelType = "wallets"
)

// FilterKind describes what the panel's target filters are.
type FilterKind int32

const (
	FilterNone FilterKind = iota
	FilterPairs
	FilterSymbols
	FilterIDs
)

// SymbolFormat selects how a target filter value is rendered in an export
// descriptor.
type SymbolFormat int32

const (
	// FormatRaw passes the filter value through unchanged (ledgers,
	// movements, funding payments use plain currency symbols).
	FormatRaw SymbolFormat = iota
	// FormatTradingPair renders "btcusd" as "tBTCUSD".
	FormatTradingPair
	// FormatFundingUpper renders "usd" as "fUSD".
	FormatFundingUpper
	// FormatNone omits the symbol entirely.
	FormatNone
)

// PanelSpec bundles every per-panel constant. The original system kept four
// parallel switch tables (limit, page size, export method, symbol selector);
// keeping them in one record makes it impossible to extend one table and
// forget another.
type PanelSpec struct {
	// QueryLimit is the server fetch batch size; zero for panels whose
	// data is a point-in-time snapshot rather than a paged history.
	QueryLimit int
	// PageSize is the number of rows per displayed page.
	PageSize int

	// DataMethod is the remote method that returns one page of records.
	DataMethod string
	// ExportMethod is the remote method that produces the CSV export.
	ExportMethod string

	FilterKind   FilterKind
	SymbolFormat SymbolFormat

	// MtsField and SymbolField name the record fields carrying the
	// business timestamp and the filter value in remote responses.
	MtsField    string
	SymbolField string

	// Export flags for panels that share an underlying export method.
	IsWithdrawals          bool
	IsDeposits             bool
	IsMarginFundingPayment bool

	// TimestampBounded panels export a snapshot at a timestamp instead of
	// a row-limited range (wallets). They carry no QueryLimit.
	TimestampBounded bool
}

var specs = map[PanelType]PanelSpec{
	Ledgers: {
		QueryLimit: 500, PageSize: 200,
		DataMethod: "getLedgers", ExportMethod: "getLedgersCsv",
		FilterKind: FilterSymbols, SymbolFormat: FormatRaw,
		MtsField: "mts", SymbolField: "currency",
	},
	Trades: {
		QueryLimit: 500, PageSize: 200,
		DataMethod: "getTrades", ExportMethod: "getTradesCsv",
		FilterKind: FilterPairs, SymbolFormat: FormatTradingPair,
		MtsField: "mtsCreate", SymbolField: "pair",
	},
	Orders: {
		QueryLimit: 500, PageSize: 200,
		DataMethod: "getOrders", ExportMethod: "getOrdersCsv",
		FilterKind: FilterPairs, SymbolFormat: FormatTradingPair,
		MtsField: "mtsUpdate", SymbolField: "pair",
	},
	Tickers: {
		QueryLimit: 500, PageSize: 200,
		DataMethod: "getTickersHistory", ExportMethod: "getTickersHistoryCsv",
		FilterKind: FilterPairs, SymbolFormat: FormatTradingPair,
		MtsField: "mtsUpdate", SymbolField: "pair",
	},
	Deposits: {
		QueryLimit: 25, PageSize: 25,
		DataMethod: "getMovements", ExportMethod: "getMovementsCsv",
		FilterKind: FilterSymbols, SymbolFormat: FormatRaw,
		MtsField: "mtsUpdated", SymbolField: "currency",
		IsDeposits: true,
	},
	Withdrawals: {
		QueryLimit: 25, PageSize: 25,
		DataMethod: "getMovements", ExportMethod: "getMovementsCsv",
		FilterKind: FilterSymbols, SymbolFormat: FormatRaw,
		MtsField: "mtsUpdated", SymbolField: "currency",
		IsWithdrawals: true,
	},
	Positions: {
		QueryLimit: 50, PageSize: 25,
		DataMethod: "getPositionsHistory", ExportMethod: "getPositionsHistoryCsv",
		FilterKind: FilterPairs, SymbolFormat: FormatTradingPair,
		MtsField: "mtsUpdate", SymbolField: "symbol",
	},
	PositionsActive: {
		QueryLimit: 50, PageSize: 25,
		DataMethod: "getActivePositions", ExportMethod: "getActivePositionsCsv",
		FilterKind: FilterPairs, SymbolFormat: FormatTradingPair,
		MtsField: "mtsUpdate", SymbolField: "symbol",
	},
	PositionsAudit: {
		QueryLimit: 250, PageSize: 125,
		DataMethod: "getPositionsAudit", ExportMethod: "getPositionsAuditCsv",
		FilterKind: FilterIDs, SymbolFormat: FormatNone,
		MtsField: "mtsUpdate", SymbolField: "id",
	},
	FundingOffers: {
		QueryLimit: 500, PageSize: 200,
		DataMethod: "getFundingOfferHistory", ExportMethod: "getFundingOfferHistoryCsv",
		FilterKind: FilterSymbols, SymbolFormat: FormatFundingUpper,
		MtsField: "mtsUpdate", SymbolField: "symbol",
	},
	FundingLoans: {
		QueryLimit: 500, PageSize: 200,
		DataMethod: "getFundingLoanHistory", ExportMethod: "getFundingLoanHistoryCsv",
		FilterKind: FilterSymbols, SymbolFormat: FormatFundingUpper,
		MtsField: "mtsUpdate", SymbolField: "symbol",
	},
	FundingCredits: {
		QueryLimit: 500, PageSize: 200,
		DataMethod: "getFundingCreditHistory", ExportMethod: "getFundingCreditHistoryCsv",
		FilterKind: FilterSymbols, SymbolFormat: FormatFundingUpper,
		MtsField: "mtsUpdate", SymbolField: "symbol",
	},
	FundingPayments: {
		QueryLimit: 500, PageSize: 200,
		DataMethod: "getLedgers", ExportMethod: "getLedgersCsv",
		FilterKind: FilterSymbols, SymbolFormat: FormatRaw,
		MtsField: "mts", SymbolField: "currency",
		IsMarginFundingPayment: true,
	},
	PublicTrades: {
		QueryLimit: 500, PageSize: 200,
		DataMethod: "getPublicTrades", ExportMethod: "getPublicTradesCsv",
		FilterKind: FilterPairs, SymbolFormat: FormatTradingPair,
		MtsField: "mts", SymbolField: "pair",
	},
	PublicFunding: {
		QueryLimit: 500, PageSize: 200,
		DataMethod: "getPublicTrades", ExportMethod: "getPublicTradesCsv",
		FilterKind: FilterSymbols, SymbolFormat: FormatFundingUpper,
		MtsField: "mts", SymbolField: "currency",
	},
	Wallets: {
		DataMethod: "getWallets", ExportMethod: "getWalletsCsv",
		FilterKind: FilterNone, SymbolFormat: FormatNone,
		TimestampBounded: true,
	},
}

// panelOrder is the stable iteration order used by Panels and by session
// initialization. Map iteration order is not deterministic.
var panelOrder = []PanelType{
	Ledgers, Trades, Orders, Tickers,
	Deposits, Withdrawals,
	Positions, PositionsActive, PositionsAudit,
	FundingOffers, FundingLoans, FundingCredits, FundingPayments,
	PublicTrades, PublicFunding,
	Wallets,
}

// Spec returns the panel's parameters. An unregistered panel type resolves
// to the Ledgers spec. The original dashboard fell through to its ledgers
// branch in every per-panel switch; that fallback is preserved here as a
// single explicit decision point.
func Spec(t PanelType) PanelSpec {
	if s, ok := specs[t]; ok {
		return s
	}
	return specs[Ledgers]
}

// Known reports whether t is a registered panel type.
func Known(t PanelType) bool {
	_, ok := specs[t]
	return ok
}

// Panels returns all registered panel types in stable order.
func Panels() []PanelType {
	out := make([]PanelType, len(panelOrder))
	copy(out, panelOrder)
	return out
}

// Paginated returns the panel types that hold a paged collection, i.e.
// everything except timestamp-bounded snapshots.
func Paginated() []PanelType {
	out := make([]PanelType, 0, len(panelOrder))
	for _, t := range panelOrder {
		if !specs[t].TimestampBounded {
			out = append(out, t)
		}
	}
	return out
}
