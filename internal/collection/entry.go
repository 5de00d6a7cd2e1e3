package collection

import (
	"encoding/json"
	"fmt"
	"strconv"

	"reportd/internal/report"
	"reportd/internal/symbols"
)

// Entry is one fetched record in a panel's append-only log. The windowing
// and filter machinery only needs the business timestamp and the record's
// filter value; the full record travels along untouched for rendering and
// export by downstream consumers.
type Entry struct {
	ID     int64           `json:"id"`
	Mts    int64           `json:"mts"`
	Symbol string          `json:"symbol"`
	Raw    json.RawMessage `json:"raw"`
}

// ParseBatch converts one page of raw records from the remote source into
// entries, reading the timestamp and filter value from the fields named by
// the panel spec. Records missing the timestamp field are rejected: the
// fetch-older boundary is built from it and a silent zero would re-fetch the
// whole history.
func ParseBatch(spec report.PanelSpec, data json.RawMessage) ([]Entry, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}

	entries := make([]Entry, 0, len(raws))
	for i, raw := range raws {
		var rec map[string]json.RawMessage
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parse record %d: %w", i, err)
		}

		e := Entry{Raw: raw}
		if idRaw, ok := rec["id"]; ok {
			if err := json.Unmarshal(idRaw, &e.ID); err != nil {
				return nil, fmt.Errorf("record %d: parse id: %w", i, err)
			}
		}

		mtsRaw, ok := rec[spec.MtsField]
		if !ok {
			return nil, fmt.Errorf("record %d: missing %s", i, spec.MtsField)
		}
		if err := json.Unmarshal(mtsRaw, &e.Mts); err != nil {
			return nil, fmt.Errorf("record %d: parse %s: %w", i, spec.MtsField, err)
		}

		if symRaw, ok := rec[spec.SymbolField]; ok {
			e.Symbol = parseFilterValue(spec, symRaw)
		}

		entries = append(entries, e)
	}
	return entries, nil
}

func parseFilterValue(spec report.PanelSpec, raw json.RawMessage) string {
	// Audit panels filter on numeric position ids.
	if spec.FilterKind == report.FilterIDs {
		var id int64
		if err := json.Unmarshal(raw, &id); err == nil {
			return strconv.FormatInt(id, 10)
		}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return symbols.ToInternal(s)
}
