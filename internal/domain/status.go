package domain

import "strings"

// AlertKind names the condition an alert flags
type AlertKind string

const (
	AlertStockoutRisk AlertKind = "STOCKOUT_RISK"
	AlertOverstock    AlertKind = "OVERSTOCK"
	AlertDemandSurge  AlertKind = "DEMAND_SURGE"
)

// Urgency of an alert
type Urgency string

const (
	UrgencyCritical Urgency = "CRITICAL"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyMedium   Urgency = "MEDIUM"
)

// Priority of a recommendation
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
	PriorityInfo   Priority = "INFO"
)

// Action tags the operation a recommendation asks for
type Action string

const (
	ActionPlaceOrder      Action = "PLACE_ORDER"
	ActionMonitor         Action = "MONITOR"
	ActionOK              Action = "OK"
	ActionSetReorderPoint Action = "SET_REORDER_POINT"
	ActionReduceStock     Action = "REDUCE_STOCK"
	ActionIncreaseStock   Action = "INCREASE_STOCK"
)

var urgencyRanks = map[Urgency]int{
	UrgencyMedium:   1,
	UrgencyHigh:     2,
	UrgencyCritical: 3,
}

// UrgencyRank returns an ordering weight for u; unknown values rank 0.
func UrgencyRank(u Urgency) int {
	return urgencyRanks[u]
}

// ParseUrgency returns the urgency for a given label (case-insensitive).
func ParseUrgency(label string) (Urgency, bool) {
	u := Urgency(strings.ToUpper(strings.TrimSpace(label)))
	_, ok := urgencyRanks[u]

	return u, ok
}

// AtLeast reports whether u is as urgent as min.
func (u Urgency) AtLeast(min Urgency) bool {
	return UrgencyRank(u) >= UrgencyRank(min)
}
