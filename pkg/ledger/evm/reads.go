package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Armolas/ajo-savings/pkg/ledger"
	"github.com/Armolas/ajo-savings/pkg/models"
)

// call runs a read-only contract view and unpacks its outputs.
func (g *Gateway) call(ctx context.Context, results *[]interface{}, method string, args ...interface{}) error {
	opts := &bind.CallOpts{Context: ctx}
	if err := g.contract.Call(opts, results, method, args...); err != nil {
		return fmt.Errorf("%w: %s: %v", ledger.ErrLedger, method, err)
	}
	return nil
}

// GroupCount returns the number of groups ever created.
func (g *Gateway) GroupCount(ctx context.Context) (uint64, error) {
	var out []interface{}
	if err := g.call(ctx, &out, "groupCount"); err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

// GroupRecord reads the groups(id) tuple. The contract returns a zero-value
// row for ids it never assigned, which maps to ErrNotFound here.
func (g *Gateway) GroupRecord(ctx context.Context, groupID uint64) (*models.GroupRecord, error) {
	count, err := g.GroupCount(ctx)
	if err != nil {
		return nil, err
	}
	if groupID >= count {
		return nil, fmt.Errorf("%w: id %d", ledger.ErrNotFound, groupID)
	}

	var out []interface{}
	if err := g.call(ctx, &out, "groups", new(big.Int).SetUint64(groupID)); err != nil {
		return nil, err
	}

	return &models.GroupRecord{
		Name:               out[0].(string),
		TokenAddress:       strings.ToLower(out[1].(common.Address).Hex()),
		ContributionAmount: out[2].(*big.Int),
		CyclePeriodSeconds: out[3].(*big.Int).Uint64(),
		CurrentCycle:       out[4].(*big.Int).Uint64(),
		StartTime:          time.Unix(out[5].(*big.Int).Int64(), 0).UTC(),
	}, nil
}

// Members returns the group's ordered member list.
func (g *Gateway) Members(ctx context.Context, groupID uint64) ([]string, error) {
	var out []interface{}
	if err := g.call(ctx, &out, "getMembers", new(big.Int).SetUint64(groupID)); err != nil {
		return nil, err
	}
	raw := out[0].([]common.Address)
	members := make([]string, len(raw))
	for i, addr := range raw {
		members[i] = strings.ToLower(addr.Hex())
	}
	return members, nil
}

// IsMember reports whether an address belongs to a group.
func (g *Gateway) IsMember(ctx context.Context, groupID uint64, address string) (bool, error) {
	var out []interface{}
	if err := g.call(ctx, &out, "isMember", new(big.Int).SetUint64(groupID), common.HexToAddress(address)); err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// GroupsForAddress returns the ids of all groups an address belongs to.
func (g *Gateway) GroupsForAddress(ctx context.Context, address string) ([]uint64, error) {
	var out []interface{}
	if err := g.call(ctx, &out, "getGroupsForAddress", common.HexToAddress(address)); err != nil {
		return nil, err
	}
	raw := out[0].([]*big.Int)
	ids := make([]uint64, len(raw))
	for i, id := range raw {
		ids[i] = id.Uint64()
	}
	return ids, nil
}

// HasContributed reports whether a member paid into a cycle.
func (g *Gateway) HasContributed(ctx context.Context, groupID uint64, address string, cycle uint64) (bool, error) {
	var out []interface{}
	err := g.call(ctx, &out, "hasContributed",
		new(big.Int).SetUint64(groupID), common.HexToAddress(address), new(big.Int).SetUint64(cycle))
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// ContributionPaid returns the amount a member paid into a cycle.
func (g *Gateway) ContributionPaid(ctx context.Context, groupID uint64, address string, cycle uint64) (*big.Int, error) {
	var out []interface{}
	err := g.call(ctx, &out, "memberContributions",
		new(big.Int).SetUint64(groupID), common.HexToAddress(address), new(big.Int).SetUint64(cycle))
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// CycleBalance returns the pooled balance of the group's current cycle.
func (g *Gateway) CycleBalance(ctx context.Context, groupID uint64) (*big.Int, error) {
	var out []interface{}
	if err := g.call(ctx, &out, "getCurrentCycleBalance", new(big.Int).SetUint64(groupID)); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// HasClaimed reports whether a cycle's pool was already paid out.
func (g *Gateway) HasClaimed(ctx context.Context, groupID uint64, cycle uint64) (bool, error) {
	var out []interface{}
	if err := g.call(ctx, &out, "hasClaimed", new(big.Int).SetUint64(groupID), new(big.Int).SetUint64(cycle)); err != nil {
		return false, err
	}
	return out[0].(bool), nil
}
