// Package api defines the JSON wire types of the HTTP surface. Raw token
// amounts travel as decimal strings so clients never lose integer precision.
package api

import "time"

// NewGroup is the create-group request body.
type NewGroup struct {
	Name               string   `json:"name"`
	TokenAddress       string   `json:"token_address"`
	ContributionAmount string   `json:"contribution_amount"`
	CycleWeeks         int      `json:"cycle_weeks"`
	Members            []string `json:"members"`
}

// GroupCreated is the create-group response.
type GroupCreated struct {
	GroupID uint64 `json:"group_id"`
}

// GroupSummary is one row of a group listing.
type GroupSummary struct {
	GroupID            uint64    `json:"group_id"`
	Name               string    `json:"name"`
	TokenAddress       string    `json:"token_address"`
	ContributionAmount string    `json:"contribution_amount"`
	CyclePeriodSeconds uint64    `json:"cycle_period_seconds"`
	StartTime          time.Time `json:"start_time"`
	MemberCount        int       `json:"member_count"`
}

// Token is the display metadata of a group's asset.
type Token struct {
	Address  string `json:"address"`
	Name     string `json:"name,omitempty"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// CycleStatus is the derived rotation state of a group's current cycle.
type CycleStatus struct {
	Index        uint64    `json:"index"`
	Recipient    string    `json:"recipient"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
	TimeProgress float64   `json:"time_progress"`
}

// FundingStatus is the derived contribution state of a group's current cycle.
type FundingStatus struct {
	CycleIndex      uint64  `json:"cycle_index"`
	Total           string  `json:"total"`
	TotalFormatted  string  `json:"total_formatted"`
	Target          string  `json:"target"`
	TargetFormatted string  `json:"target_formatted"`
	Percent         float64 `json:"percent"`
	FullyFunded     bool    `json:"fully_funded"`
	Claimed         bool    `json:"claimed"`
}

// GroupDetail is the full group view.
type GroupDetail struct {
	GroupID            uint64        `json:"group_id"`
	Name               string        `json:"name"`
	Token              Token         `json:"token"`
	ContributionAmount string        `json:"contribution_amount"`
	AmountFormatted    string        `json:"amount_formatted"`
	CyclePeriodSeconds uint64        `json:"cycle_period_seconds"`
	StartTime          time.Time     `json:"start_time"`
	Members            []string      `json:"members"`
	Cycle              CycleStatus   `json:"cycle"`
	Funding            FundingStatus `json:"funding"`
}

// Contribution reports a member's standing in the current cycle.
type Contribution struct {
	GroupID         uint64 `json:"group_id"`
	Member          string `json:"member"`
	CycleIndex      uint64 `json:"cycle_index"`
	HasContributed  bool   `json:"has_contributed"`
	AmountPaid      string `json:"amount_paid"`
	AmountFormatted string `json:"amount_formatted"`
}

// ActionRequest is the body of contribute and claim requests. ExpectedCycle
// optionally pins the cycle the caller acted on; a mismatch is rejected
// instead of being applied to a different cycle.
type ActionRequest struct {
	From          string  `json:"from"`
	ExpectedCycle *uint64 `json:"expected_cycle,omitempty"`
}

// ActionAccepted acknowledges a submitted write with its ledger reference.
type ActionAccepted struct {
	GroupID uint64 `json:"group_id"`
	TxRef   string `json:"tx_ref"`
}

// Error is the generic error body.
type Error struct {
	Error string `json:"error"`
}

// ValidationError carries per-field problems of a rejected form.
type ValidationError struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}
