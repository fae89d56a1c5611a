// Package funding derives the contribution state of a group's cycle from
// ledger-fetched counters. The computations are exact big-integer arithmetic;
// only the display percentage is converted to floating point, after clamping.
package funding

import (
	"context"
	"fmt"
	"math"
	"math/big"

	"github.com/Armolas/ajo-savings/pkg/ledger"
	"github.com/Armolas/ajo-savings/pkg/models"
)

// ProgressPercent returns how much of the cycle's pool target has been
// contributed, as a percentage clamped to [0, 100]. The result is exactly 100
// if and only if the cycle is fully funded.
func ProgressPercent(g *models.Group, total *big.Int) (float64, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}
	target := g.PoolTarget()
	if total == nil || total.Sign() <= 0 {
		return 0, nil
	}
	if total.Cmp(target) >= 0 {
		return 100, nil
	}
	// total < target here, so the exact ratio is strictly below 100. Float
	// conversion of a huge target could still round up to 100, which would
	// break the "100 iff fully funded" property, hence the Nextafter guard.
	ratio := new(big.Rat).SetFrac(total, target)
	pct, _ := new(big.Rat).Mul(ratio, big.NewRat(100, 1)).Float64()
	if pct >= 100 {
		pct = math.Nextafter(100, 0)
	}
	return pct, nil
}

// IsFullyFunded reports whether the cycle balance equals the pool target:
// contribution amount times member count.
func IsFullyFunded(g *models.Group, total *big.Int) (bool, error) {
	if err := g.Validate(); err != nil {
		return false, err
	}
	return total != nil && total.Cmp(g.PoolTarget()) == 0, nil
}

// View reads contribution counters through a ledger Reader and derives
// funding state from them. It holds no state of its own.
type View struct {
	Reader ledger.Reader
}

// NewView creates a funding view over a ledger reader.
func NewView(reader ledger.Reader) *View {
	return &View{Reader: reader}
}

// HasContributed reports whether a member has paid into a cycle. The answer
// always comes from the ledger, never from a cached or placeholder value.
func (v *View) HasContributed(ctx context.Context, groupID uint64, member string, cycleIndex uint64) (bool, error) {
	return v.Reader.HasContributed(ctx, groupID, member, cycleIndex)
}

// ContributionPaid returns the exact amount a member paid into a cycle.
func (v *View) ContributionPaid(ctx context.Context, groupID uint64, member string, cycleIndex uint64) (*big.Int, error) {
	return v.Reader.ContributionPaid(ctx, groupID, member, cycleIndex)
}

// Status derives the full funding state of the group's current cycle.
func (v *View) Status(ctx context.Context, g *models.Group, cycleIndex uint64) (*models.FundingStatus, error) {
	total, err := v.Reader.CycleBalance(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cycle balance: %w", err)
	}
	claimed, err := v.Reader.HasClaimed(ctx, g.ID, cycleIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to read claim state: %w", err)
	}
	percent, err := ProgressPercent(g, total)
	if err != nil {
		return nil, err
	}
	full, err := IsFullyFunded(g, total)
	if err != nil {
		return nil, err
	}
	return &models.FundingStatus{
		CycleIndex:  cycleIndex,
		Total:       total,
		Target:      g.PoolTarget(),
		Percent:     percent,
		FullyFunded: full,
		Claimed:     claimed,
	}, nil
}
