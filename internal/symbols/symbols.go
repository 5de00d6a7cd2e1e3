// Package symbols converts between the symbol spellings used across the
// system: the exchange wire form ("tBTCUSD", "fUSD"), the internal form used
// as filter values ("btcusd", "usd"), and the display pair ("BTC/USD").
package symbols

import "strings"

// ToInternal strips the wire prefix and lowercases: "tBTCUSD" -> "btcusd".
// Values without a t/f prefix are lowercased as-is.
func ToInternal(raw string) string {
	if len(raw) > 1 && (raw[0] == 't' || raw[0] == 'f') && raw[1] >= 'A' && raw[1] <= 'Z' {
		raw = raw[1:]
	}
	return strings.ToLower(raw)
}

// ToPair renders an exchange symbol as a display pair: "tBTCUSD" -> "BTC/USD".
// Six-letter bases split 3/3; longer symbols keep the 3-letter quote.
func ToPair(raw string) string {
	s := strings.ToUpper(ToInternal(raw))
	if len(s) <= 3 {
		return s
	}
	return s[:len(s)-3] + "/" + s[len(s)-3:]
}

// FormatRawPair renders an internal pair in exchange wire form:
// "btcusd" -> "tBTCUSD".
func FormatRawPair(pair string) string {
	if pair == "" {
		return ""
	}
	return "t" + strings.ToUpper(pair)
}

// FormatRawPairs maps FormatRawPair over a filter list.
func FormatRawPairs(pairs []string) []string {
	if len(pairs) == 0 {
		return nil
	}
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = FormatRawPair(p)
	}
	return out
}

// FormatFunding renders an internal currency in funding wire form:
// "usd" -> "fUSD".
func FormatFunding(coin string) string {
	if coin == "" {
		return ""
	}
	return "f" + strings.ToUpper(coin)
}

// MergeSorted inserts v into a sorted, deduplicated list and returns the
// list. The existing-filter catalogs stay small (tens of symbols), so a
// linear insert keeps them sorted without re-sorting on every batch.
func MergeSorted(list []string, v string) []string {
	if v == "" {
		return list
	}
	for i, s := range list {
		if s == v {
			return list
		}
		if s > v {
			list = append(list, "")
			copy(list[i+1:], list[i:])
			list[i] = v
			return list
		}
	}
	return append(list, v)
}
