// Package symbol routes ticker symbols to a provider family.
package symbol

// Family is the provider family a symbol belongs to.
type Family int

const (
	International Family = iota
	Domestic
)

func (f Family) String() string {
	if f == Domestic {
		return "domestic"
	}
	return "international"
}

// Domestic sub-market suffixes. Matching is case-sensitive.
const (
	SuffixKOSPI  = ".KS"
	SuffixKOSDAQ = ".KQ"
)

// Classification is computed once per request and handed downstream.
type Classification struct {
	Symbol     string
	Family     Family
	NativeCode string
	// Suffix is the matched domestic suffix, empty for international symbols.
	Suffix string
}

// IsDomestic reports whether the symbol trades on a domestic sub-market.
func (c Classification) IsDomestic() bool { return c.Family == Domestic }

// Exchange returns the domestic sub-market label, or "" for international symbols.
func (c Classification) Exchange() string {
	switch c.Suffix {
	case SuffixKOSPI:
		return "KOSPI"
	case SuffixKOSDAQ:
		return "KOSDAQ"
	}
	return ""
}

// Classify inspects the last three characters of sym.
func Classify(sym string) Classification {
	c := Classification{Symbol: sym, Family: International, NativeCode: sym}
	if len(sym) < 3 {
		return c
	}
	switch tail := sym[len(sym)-3:]; tail {
	case SuffixKOSPI, SuffixKOSDAQ:
		c.Family = Domestic
		c.NativeCode = sym[:len(sym)-3]
		c.Suffix = tail
	}
	return c
}
