package portfolio

import (
	"fmt"
	"strings"
	"time"
)

// RebalancePolicy governs when positions are reset to target weights.
type RebalancePolicy int

// Supported rebalancing policies
const (
	RebalanceNone RebalancePolicy = iota
	RebalanceMonthly
	RebalanceQuarterly
	RebalanceYearly
)

var policyNames = map[RebalancePolicy]string{
	RebalanceNone:      "None",
	RebalanceMonthly:   "Monthly",
	RebalanceQuarterly: "Quarterly",
	RebalanceYearly:    "Yearly",
}

// ParsePolicy parses a policy name, case-insensitively.
func ParsePolicy(s string) (RebalancePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RebalanceNone, nil
	case "monthly":
		return RebalanceMonthly, nil
	case "quarterly":
		return RebalanceQuarterly, nil
	case "yearly", "annual":
		return RebalanceYearly, nil
	}
	return RebalanceNone, fmt.Errorf("unknown rebalance policy %q", s)
}

// Valid reports whether p is a known policy.
func (p RebalancePolicy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

func (p RebalancePolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("RebalancePolicy(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler
func (p RebalancePolicy) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("unknown rebalance policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *RebalancePolicy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// period labels the calendar period containing t. Labels carry the year so
// two dates a full cycle apart never compare equal.
func (p RebalancePolicy) period(t time.Time) int {
	switch p {
	case RebalanceMonthly:
		return t.Year()*12 + int(t.Month()) - 1
	case RebalanceQuarterly:
		return t.Year()*4 + (int(t.Month())-1)/3
	case RebalanceYearly:
		return t.Year()
	}
	return 0
}

// crosses reports whether curr starts a new period relative to prev.
func (p RebalancePolicy) crosses(prev, curr time.Time) bool {
	if p == RebalanceNone {
		return false
	}
	return p.period(prev) != p.period(curr)
}
