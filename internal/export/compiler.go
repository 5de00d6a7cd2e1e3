// Package export turns "download these panels" into one batched CSV job.
// Compilation is a pure mapping from the closed panel set to export
// descriptors; submission is a single remote call whose outcome, success or
// failure, surfaces only as status events.
package export

import (
	"strconv"

	"reportd/internal/collection"
	"reportd/internal/report"
	"reportd/internal/symbols"
)

// Descriptor is one panel's contribution to a batched export job.
type Descriptor struct {
	Method string `json:"method"`

	Symbol []string `json:"symbol,omitempty"`
	ID     []int64  `json:"id,omitempty"`

	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
	Limit int   `json:"limit,omitempty"`

	Timezone     string `json:"timezone,omitempty"`
	DateFormat   string `json:"dateFormat,omitempty"`
	Milliseconds bool   `json:"milliseconds"`

	IsWithdrawals          bool `json:"isWithdrawals,omitempty"`
	IsDeposits             bool `json:"isDeposits,omitempty"`
	IsMarginFundingPayment bool `json:"isMarginFundingPayment,omitempty"`
}

// Request is the batched multi-export job submitted in one call.
type Request struct {
	MultiExport []Descriptor `json:"multiExport"`
	Email       string       `json:"email,omitempty"`
}

// SessionState is the slice of session state the compiler reads.
type SessionState interface {
	Prefs() collection.Prefs
	TargetFilters(report.PanelType) []string
}

// Compile derives one descriptor per requested panel and assembles the
// batched request. It is total over the panel set: unknown panels compile
// against the ledgers spec, the same fallback every other per-panel lookup
// uses.
func Compile(targets []report.PanelType, st SessionState) Request {
	prefs := st.Prefs()

	multi := make([]Descriptor, 0, len(targets))
	for _, target := range targets {
		spec := report.Spec(target)

		desc := Descriptor{
			Method:                 spec.ExportMethod,
			Start:                  prefs.Start,
			End:                    prefs.End,
			Timezone:               prefs.Timezone,
			DateFormat:             prefs.DateFormat,
			Milliseconds:           prefs.Milliseconds,
			IsWithdrawals:          spec.IsWithdrawals,
			IsDeposits:             spec.IsDeposits,
			IsMarginFundingPayment: spec.IsMarginFundingPayment,
		}

		if spec.TimestampBounded {
			// Wallets export a snapshot at a timestamp; no row limit.
			desc.End = prefs.WalletsMts
		} else {
			desc.Limit = spec.QueryLimit
		}

		filters := st.TargetFilters(target)
		switch spec.FilterKind {
		case report.FilterIDs:
			desc.ID = parseIDs(filters)
		case report.FilterNone:
		default:
			desc.Symbol = formatFilters(spec.SymbolFormat, filters)
		}

		multi = append(multi, desc)
	}

	return Request{
		MultiExport: multi,
		Email:       prefs.ExportEmail,
	}
}

func formatFilters(format report.SymbolFormat, filters []string) []string {
	if len(filters) == 0 {
		return nil
	}
	switch format {
	case report.FormatTradingPair:
		return symbols.FormatRawPairs(filters)
	case report.FormatFundingUpper:
		out := make([]string, len(filters))
		for i, f := range filters {
			out[i] = symbols.FormatFunding(f)
		}
		return out
	case report.FormatNone:
		return nil
	default:
		out := make([]string, len(filters))
		copy(out, filters)
		return out
	}
}

func parseIDs(filters []string) []int64 {
	ids := make([]int64, 0, len(filters))
	for _, f := range filters {
		if id, err := strconv.ParseInt(f, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}
