package models

// Lookbacks lists the history windows a price source understands.
var Lookbacks = []string{"1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// ValidLookback reports whether s is one of Lookbacks.
func ValidLookback(s string) bool {
	for _, l := range Lookbacks {
		if l == s {
			return true
		}
	}
	return false
}
