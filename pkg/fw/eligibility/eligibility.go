// Package eligibility decides which funds carry a vendor real-time estimate.
package eligibility

import "strings"

// Vendor fund type codes that are estimated intraday.
const (
	TypeStock  = "001"
	TypeHybrid = "002"
	TypeIndex  = "003"
)

var estimated = map[string]bool{TypeStock: true, TypeHybrid: true, TypeIndex: true}

// SupportsRealtimeEstimate reports whether a fund gets intraday estimates.
// Funds with neither a type code nor a type label are treated as unknown and
// excluded. ETFs are excluded by name or label even in an eligible category.
func SupportsRealtimeEstimate(typeCode, typeLabel, name string) bool {
	if typeCode == "" && typeLabel == "" {
		return false
	}
	if typeCode != "" && !estimated[typeCode] {
		return false
	}
	if strings.Contains(name, "ETF") || strings.Contains(typeLabel, "ETF") {
		return false
	}
	return true
}
