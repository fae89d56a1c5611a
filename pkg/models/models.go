package models

import (
	"errors"
	"fmt"
	"math/big"
	"time"
)

// SecondsPerWeek converts the cycle-weeks creation input into the period stored on chain.
const SecondsPerWeek = 7 * 24 * 60 * 60

// DefaultTokenDecimals is assumed when a token does not implement decimals().
const DefaultTokenDecimals = 18

// DefaultTokenSymbol is displayed when a token does not implement symbol().
const DefaultTokenSymbol = "TOKEN"

// GroupRecord is the raw group row as returned by the ledger, before validation.
// Field order mirrors the contract's groups(id) tuple.
type GroupRecord struct {
	Name               string
	TokenAddress       string
	ContributionAmount *big.Int
	CyclePeriodSeconds uint64
	CurrentCycle       uint64
	StartTime          time.Time
}

// Group is a validated rotating savings circle. All fields are fixed at
// creation; the ledger owns the authoritative copy and this struct is only a
// read view of it.
type Group struct {
	ID                 uint64
	Name               string
	TokenAddress       string
	ContributionAmount *big.Int
	CyclePeriod        time.Duration
	StartTime          time.Time
	Members            []string
}

// ErrInvalidGroup is returned when a ledger record violates the group invariants.
var ErrInvalidGroup = errors.New("invalid group")

// Validate checks the invariants every group must satisfy: at least one member
// with no duplicates, a positive contribution amount, and a positive cycle
// period. A record fetched from a healthy ledger always passes; a failure means
// the record is corrupt or the group id does not exist.
func (g *Group) Validate() error {
	if len(g.Members) == 0 {
		return fmt.Errorf("%w: group %d has no members", ErrInvalidGroup, g.ID)
	}
	seen := make(map[string]struct{}, len(g.Members))
	for _, m := range g.Members {
		if _, dup := seen[m]; dup {
			return fmt.Errorf("%w: group %d has duplicate member %s", ErrInvalidGroup, g.ID, m)
		}
		seen[m] = struct{}{}
	}
	if g.ContributionAmount == nil || g.ContributionAmount.Sign() <= 0 {
		return fmt.Errorf("%w: group %d has non-positive contribution amount", ErrInvalidGroup, g.ID)
	}
	if g.CyclePeriod <= 0 {
		return fmt.Errorf("%w: group %d has non-positive cycle period", ErrInvalidGroup, g.ID)
	}
	return nil
}

// MemberCount returns the number of members in the group.
func (g *Group) MemberCount() int {
	return len(g.Members)
}

// PoolTarget is the cycle balance at which a cycle is fully funded:
// contribution amount times member count.
func (g *Group) PoolTarget() *big.Int {
	return new(big.Int).Mul(g.ContributionAmount, big.NewInt(int64(len(g.Members))))
}

// TokenMetadata describes the ERC-20 asset a group contributes in. Every field
// is independently optional on chain, so absent values are filled with
// defaults rather than failing the whole group view.
type TokenMetadata struct {
	Address  string
	Name     string
	Symbol   string
	Decimals uint8
}

// CycleStatus is the derived state of one cycle of a group at a point in time.
type CycleStatus struct {
	Index        uint64
	Recipient    string
	WindowStart  time.Time
	WindowEnd    time.Time
	TimeProgress float64
}

// FundingStatus is the derived contribution state of one cycle of a group.
type FundingStatus struct {
	CycleIndex  uint64
	Total       *big.Int
	Target      *big.Int
	Percent     float64
	FullyFunded bool
	Claimed     bool
}

// CreateGroupParams carries the validated inputs of a create-group write.
type CreateGroupParams struct {
	Name               string
	TokenAddress       string
	ContributionAmount *big.Int
	CycleWeeks         uint64
	Members            []string
}
