package ledger

import (
	"context"

	"github.com/Armolas/ajo-savings/pkg/models"
)

// Writer defines the three state-changing operations of the savings ledger.
// Every write is final once submitted: implementations must not retry on their
// own, since the first attempt may still reach finality and a retry would
// double-submit.
type Writer interface {
	// CreateGroup registers a new group and returns its ledger-assigned ID.
	CreateGroup(ctx context.Context, params *models.CreateGroupParams) (uint64, error)

	// Contribute pays the fixed contribution amount of the group's current
	// cycle from the given address. Returns a transaction reference.
	Contribute(ctx context.Context, from string, groupID uint64) (string, error)

	// ClaimPool pays the current cycle's pooled balance out to the caller,
	// who must be that cycle's recipient. Returns a transaction reference.
	ClaimPool(ctx context.Context, from string, groupID uint64) (string, error)
}
