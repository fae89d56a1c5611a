// Package repository maps raw ledger records into validated domain entities
// and serves them from a short-lived read cache. The ledger stays the single
// source of truth: entries live for a small TTL and are dropped as soon as a
// local write touches the group.
package repository

import (
	"context"
	"fmt"
	"math/big"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/Armolas/ajo-savings/pkg/ledger"
	"github.com/Armolas/ajo-savings/pkg/models"
)

// DefaultTTL bounds how stale a cached group view may be. Anything longer
// risks showing a cycle that has already rolled over.
const DefaultTTL = 30 * time.Second

// GroupView joins everything the group detail surface needs. The reads behind
// it are independent ledger queries issued concurrently.
type GroupView struct {
	Group   *models.Group
	Token   *models.TokenMetadata
	Balance *big.Int
}

// Repository fetches and caches validated group data from the ledger.
type Repository struct {
	reader ledger.Reader
	tokens ledger.TokenReader
	cache  *gocache.Cache
}

// New creates a repository over the given ledger with the given cache TTL.
// A non-positive TTL falls back to DefaultTTL.
func New(reader ledger.Reader, tokens ledger.TokenReader, ttl time.Duration) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repository{
		reader: reader,
		tokens: tokens,
		cache:  gocache.New(ttl, 2*ttl),
	}
}

func groupKey(groupID uint64) string   { return fmt.Sprintf("group:%d", groupID) }
func membersKey(groupID uint64) string { return fmt.Sprintf("members:%d", groupID) }

// Invalidate drops all cached state for a group. Called after every
// successful write that touches it.
func (r *Repository) Invalidate(groupID uint64) {
	r.cache.Delete(groupKey(groupID))
	r.cache.Delete(membersKey(groupID))
}

// FetchGroup returns the validated Group for an ID, from cache when fresh.
// Returns ledger.ErrNotFound when the ID has no ledger record.
func (r *Repository) FetchGroup(ctx context.Context, groupID uint64) (*models.Group, error) {
	if cached, ok := r.cache.Get(groupKey(groupID)); ok {
		return cached.(*models.Group), nil
	}

	var (
		record  *models.GroupRecord
		members []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		record, err = r.reader.GroupRecord(gctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		members, err = r.reader.Members(gctx, groupID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	group := &models.Group{
		ID:                 groupID,
		Name:               record.Name,
		TokenAddress:       record.TokenAddress,
		ContributionAmount: record.ContributionAmount,
		CyclePeriod:        time.Duration(record.CyclePeriodSeconds) * time.Second,
		StartTime:          record.StartTime,
		Members:            members,
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	r.cache.SetDefault(groupKey(groupID), group)
	return group, nil
}

// FetchMembers returns the ordered member list of a group.
func (r *Repository) FetchMembers(ctx context.Context, groupID uint64) ([]string, error) {
	if cached, ok := r.cache.Get(membersKey(groupID)); ok {
		return cached.([]string), nil
	}
	members, err := r.reader.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(membersKey(groupID), members)
	return members, nil
}

// FetchTokenMetadata resolves token display metadata. Implementations of the
// token reader already degrade gracefully, so this never fails a view over a
// token that merely lacks name() or symbol().
func (r *Repository) FetchTokenMetadata(ctx context.Context, tokenAddress string) (*models.TokenMetadata, error) {
	key := "token:" + tokenAddress
	if cached, ok := r.cache.Get(key); ok {
		return cached.(*models.TokenMetadata), nil
	}
	meta, err := r.tokens.TokenMetadata(ctx, tokenAddress)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, meta)
	return meta, nil
}

// FetchGroupView joins the group record, member list, current cycle balance
// and token metadata. The group is resolved first (it names the token); the
// remaining independent reads are fanned out and joined.
func (r *Repository) FetchGroupView(ctx context.Context, groupID uint64) (*GroupView, error) {
	group, err := r.FetchGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	view := &GroupView{Group: group}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		view.Balance, err = r.reader.CycleBalance(gctx, groupID)
		return err
	})
	g.Go(func() error {
		var err error
		view.Token, err = r.FetchTokenMetadata(gctx, group.TokenAddress)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// ListGroups returns validated groups for every ID the ledger knows about.
// Records that fail validation are skipped rather than failing the listing.
func (r *Repository) ListGroups(ctx context.Context) ([]*models.Group, error) {
	count, err := r.reader.GroupCount(ctx)
	if err != nil {
		return nil, err
	}
	groups := make([]*models.Group, 0, count)
	for id := uint64(0); id < count; id++ {
		group, err := r.FetchGroup(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// GroupsForAddress returns the validated groups an address belongs to.
func (r *Repository) GroupsForAddress(ctx context.Context, address string) ([]*models.Group, error) {
	ids, err := r.reader.GroupsForAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	groups := make([]*models.Group, 0, len(ids))
	for _, id := range ids {
		group, err := r.FetchGroup(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		groups = append(groups, group)
	}
	return groups, nil
}
