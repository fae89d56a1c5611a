// Package coordinator validates and sequences the mutating actions of the
// savings scheme before delegating them to the ledger. Its job is to never
// issue a request that fresh local state already shows is doomed, and to keep
// at most one write in flight per (group, action, member) key. Atomicity of
// the writes themselves belongs to the ledger.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Armolas/ajo-savings/pkg/amount"
	"github.com/Armolas/ajo-savings/pkg/cycle"
	"github.com/Armolas/ajo-savings/pkg/funding"
	"github.com/Armolas/ajo-savings/pkg/ledger"
	"github.com/Armolas/ajo-savings/pkg/models"
	"github.com/Armolas/ajo-savings/pkg/repository"
	"github.com/Armolas/ajo-savings/pkg/validate"
)

// ErrRequestInFlight is returned while an earlier write for the same
// (group, action, member) key has not yet resolved. The first attempt may
// still reach finality, so a second submission must wait, never race it.
var ErrRequestInFlight = errors.New("a request for this action is already in flight")

// ErrStaleData is returned when the cycle the caller acted on is no longer
// the ledger's current cycle. The cached view is dropped; the caller must
// refresh before resubmitting.
var ErrStaleData = errors.New("local view is stale, refresh before retrying")

// ErrContributionWindowClosed is returned when a contribution targets a cycle
// whose time window has already elapsed.
var ErrContributionWindowClosed = errors.New("contribution window for this cycle has closed")

type action string

const (
	actionContribute action = "contribute"
	actionClaim      action = "claim"
)

type inflightKey struct {
	groupID uint64
	act     action
	member  string
}

// Coordinator gates contribute, claim and create-group against current
// cycle and contribution state.
type Coordinator struct {
	Ledger ledger.Ledger
	Repo   *repository.Repository
	View   *funding.View
	Logger *slog.Logger

	// Now is the clock used for cycle derivation. Injectable for tests.
	Now func() time.Time

	mu       sync.Mutex
	inflight map[inflightKey]struct{}
}

// New creates a coordinator over a ledger and its repository.
func New(l ledger.Ledger, repo *repository.Repository, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		Ledger:   l,
		Repo:     repo,
		View:     funding.NewView(l),
		Logger:   logger,
		Now:      time.Now,
		inflight: make(map[inflightKey]struct{}),
	}
}

// acquire marks a write key as in flight. The returned release must be called
// once the write resolves, success or failure.
func (c *Coordinator) acquire(key inflightKey) (release func(), err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[key]; busy {
		return nil, ErrRequestInFlight
	}
	c.inflight[key] = struct{}{}
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.inflight, key)
	}, nil
}

// ContributeRequest asks to pay the fixed contribution into a group's current
// cycle. ExpectedCycle, when set, is the cycle index the caller saw when they
// initiated the action; a mismatch with the ledger's current cycle is reported
// instead of silently contributing to a different cycle.
type ContributeRequest struct {
	GroupID       uint64
	From          string
	ExpectedCycle *uint64
}

// Contribute checks membership, the contribution window and the one-payment-
// per-cycle rule against fresh reads, then submits the write. The group's
// cached view is invalidated after any successful write.
func (c *Coordinator) Contribute(ctx context.Context, req *ContributeRequest) (txRef string, err error) {
	from := validate.NormalizeAddress(req.From)
	if !validate.IsAddress(from) {
		return "", fmt.Errorf("%w: %q is not a valid address", ledger.ErrNotAMember, req.From)
	}

	release, err := c.acquire(inflightKey{req.GroupID, actionContribute, from})
	if err != nil {
		return "", err
	}
	defer release()

	group, err := c.Repo.FetchGroup(ctx, req.GroupID)
	if err != nil {
		return "", err
	}

	now := c.Now()
	index, err := cycle.CurrentIndex(group, now)
	if err != nil {
		return "", err
	}
	if req.ExpectedCycle != nil && *req.ExpectedCycle != index {
		c.Repo.Invalidate(req.GroupID)
		if *req.ExpectedCycle < index {
			return "", fmt.Errorf("%w: cycle %d ended, current cycle is %d",
				ErrContributionWindowClosed, *req.ExpectedCycle, index)
		}
		return "", fmt.Errorf("%w: cycle %d has not started, current cycle is %d",
			ErrStaleData, *req.ExpectedCycle, index)
	}

	if !memberOf(group, from) {
		return "", fmt.Errorf("%w: %s in group %d", ledger.ErrNotAMember, from, req.GroupID)
	}

	// Fresh read right before the write; the cached view may be up to a TTL old.
	contributed, err := c.Ledger.HasContributed(ctx, req.GroupID, from, index)
	if err != nil {
		return "", fmt.Errorf("failed to check contribution state: %w", err)
	}
	if contributed {
		return "", fmt.Errorf("%w: %s already paid into cycle %d", ledger.ErrAlreadyContributed, from, index)
	}

	opID := uuid.NewString()
	c.Logger.Info("submitting contribution",
		"op_id", opID, "group_id", req.GroupID, "member", from, "cycle", index)

	txRef, err = c.Ledger.Contribute(ctx, from, req.GroupID)
	if err != nil {
		// The ledger may still reject on a condition that changed after our
		// fresh read; drop the cache so the next view is rebuilt.
		c.Repo.Invalidate(req.GroupID)
		c.Logger.Error("contribution rejected", "op_id", opID, "group_id", req.GroupID, "error", err)
		return "", err
	}

	c.Repo.Invalidate(req.GroupID)
	c.Logger.Info("contribution recorded", "op_id", opID, "group_id", req.GroupID, "tx_ref", txRef)
	return txRef, nil
}

// ClaimRequest asks to pay out the pooled balance of a group's current cycle.
type ClaimRequest struct {
	GroupID       uint64
	From          string
	ExpectedCycle *uint64
}

// Claim verifies the caller is the current recipient, the cycle is fully
// funded and the pool has not been claimed, all against fresh reads, then
// submits the payout. A doomed claim is never sent to the ledger.
func (c *Coordinator) Claim(ctx context.Context, req *ClaimRequest) (txRef string, err error) {
	from := validate.NormalizeAddress(req.From)
	if !validate.IsAddress(from) {
		return "", fmt.Errorf("%w: %q is not a valid address", ledger.ErrNotRecipient, req.From)
	}

	release, err := c.acquire(inflightKey{req.GroupID, actionClaim, from})
	if err != nil {
		return "", err
	}
	defer release()

	group, err := c.Repo.FetchGroup(ctx, req.GroupID)
	if err != nil {
		return "", err
	}

	now := c.Now()
	index, err := cycle.CurrentIndex(group, now)
	if err != nil {
		return "", err
	}
	if req.ExpectedCycle != nil && *req.ExpectedCycle != index {
		c.Repo.Invalidate(req.GroupID)
		return "", fmt.Errorf("%w: acted on cycle %d, current cycle is %d",
			ErrStaleData, *req.ExpectedCycle, index)
	}

	recipient, err := cycle.Recipient(group, index)
	if err != nil {
		return "", err
	}
	if validate.NormalizeAddress(recipient) != from {
		return "", fmt.Errorf("%w: cycle %d pays out to %s", ledger.ErrNotRecipient, index, recipient)
	}

	// Claim state and balance are independent reads; fan out and join.
	var (
		claimed bool
		full    bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		claimed, err = c.Ledger.HasClaimed(gctx, req.GroupID, index)
		return err
	})
	g.Go(func() error {
		total, err := c.Ledger.CycleBalance(gctx, req.GroupID)
		if err != nil {
			return err
		}
		full, err = funding.IsFullyFunded(group, total)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("failed to check claim preconditions: %w", err)
	}

	if claimed {
		return "", fmt.Errorf("%w: cycle %d of group %d", ledger.ErrAlreadyClaimed, index, req.GroupID)
	}
	if !full {
		return "", fmt.Errorf("%w: cycle %d of group %d", ledger.ErrNotFullyFunded, index, req.GroupID)
	}

	opID := uuid.NewString()
	c.Logger.Info("submitting claim",
		"op_id", opID, "group_id", req.GroupID, "recipient", from, "cycle", index)

	txRef, err = c.Ledger.ClaimPool(ctx, from, req.GroupID)
	if err != nil {
		c.Repo.Invalidate(req.GroupID)
		c.Logger.Error("claim rejected", "op_id", opID, "group_id", req.GroupID, "error", err)
		return "", err
	}

	c.Repo.Invalidate(req.GroupID)
	c.Logger.Info("pool claimed", "op_id", opID, "group_id", req.GroupID, "tx_ref", txRef)
	return txRef, nil
}

// CreateGroup validates the form, resolves the token's decimals to convert the
// human-readable amount into raw units, and registers the group on the ledger.
func (c *Coordinator) CreateGroup(ctx context.Context, in *validate.CreateGroupInput) (uint64, error) {
	members, errs := validate.CreateGroup(in)
	if errs != nil {
		return 0, errs
	}

	token := validate.NormalizeAddress(in.TokenAddress)
	meta, err := c.Ledger.TokenMetadata(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve token metadata: %w", err)
	}

	raw, err := amount.Parse(in.ContributionAmount, meta.Decimals)
	if err != nil {
		return 0, validate.Errors{"contribution_amount": {"must be a valid positive number"}}
	}

	opID := uuid.NewString()
	c.Logger.Info("creating group",
		"op_id", opID, "name", in.Name, "token", token, "members", len(members), "cycle_weeks", in.CycleWeeks)

	groupID, err := c.Ledger.CreateGroup(ctx, &models.CreateGroupParams{
		Name:               in.Name,
		TokenAddress:       token,
		ContributionAmount: raw,
		CycleWeeks:         uint64(in.CycleWeeks),
		Members:            members,
	})
	if err != nil {
		c.Logger.Error("group creation rejected", "op_id", opID, "error", err)
		return 0, err
	}

	c.Logger.Info("group created", "op_id", opID, "group_id", groupID)
	return groupID, nil
}

func memberOf(g *models.Group, normalized string) bool {
	for _, m := range g.Members {
		if validate.NormalizeAddress(m) == normalized {
			return true
		}
	}
	return false
}
