package ledger

import (
	"context"
	"math/big"

	"github.com/Armolas/ajo-savings/pkg/models"
)

// Reader defines the read-only view of the savings ledger. All methods are
// independent queries with no ordering dependency between them; callers may
// issue them concurrently and join the results.
type Reader interface {
	// GroupCount returns the number of groups ever created on the ledger.
	GroupCount(ctx context.Context) (uint64, error)

	// GroupRecord retrieves the raw group row for a group ID.
	// Returns ErrNotFound when no group with that ID exists.
	GroupRecord(ctx context.Context, groupID uint64) (*models.GroupRecord, error)

	// Members returns the ordered member list of a group. The order is fixed
	// at creation and determines the payout rotation.
	Members(ctx context.Context, groupID uint64) ([]string, error)

	// IsMember reports whether an address belongs to a group.
	IsMember(ctx context.Context, groupID uint64, address string) (bool, error)

	// GroupsForAddress returns the IDs of all groups an address belongs to.
	GroupsForAddress(ctx context.Context, address string) ([]uint64, error)

	// HasContributed reports whether a member has contributed to a cycle.
	HasContributed(ctx context.Context, groupID uint64, address string, cycle uint64) (bool, error)

	// ContributionPaid returns the amount a member paid into a cycle.
	// Zero means no contribution was recorded.
	ContributionPaid(ctx context.Context, groupID uint64, address string, cycle uint64) (*big.Int, error)

	// CycleBalance returns the pooled balance of the group's current cycle.
	CycleBalance(ctx context.Context, groupID uint64) (*big.Int, error)

	// HasClaimed reports whether the pool of a cycle has already been paid out.
	HasClaimed(ctx context.Context, groupID uint64, cycle uint64) (bool, error)
}
