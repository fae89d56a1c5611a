// Package mocks provides a testify mock of the savings ledger for handler and
// coordinator tests.
package mocks

import (
	"context"
	"math/big"

	"github.com/stretchr/testify/mock"

	"github.com/Armolas/ajo-savings/pkg/models"
)

// Ledger is a mock implementation of ledger.Ledger.
type Ledger struct {
	mock.Mock
}

func (m *Ledger) GroupCount(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *Ledger) GroupRecord(ctx context.Context, groupID uint64) (*models.GroupRecord, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GroupRecord), args.Error(1)
}

func (m *Ledger) Members(ctx context.Context, groupID uint64) ([]string, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *Ledger) IsMember(ctx context.Context, groupID uint64, address string) (bool, error) {
	args := m.Called(ctx, groupID, address)
	return args.Bool(0), args.Error(1)
}

func (m *Ledger) GroupsForAddress(ctx context.Context, address string) ([]uint64, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint64), args.Error(1)
}

func (m *Ledger) HasContributed(ctx context.Context, groupID uint64, address string, cycle uint64) (bool, error) {
	args := m.Called(ctx, groupID, address, cycle)
	return args.Bool(0), args.Error(1)
}

func (m *Ledger) ContributionPaid(ctx context.Context, groupID uint64, address string, cycle uint64) (*big.Int, error) {
	args := m.Called(ctx, groupID, address, cycle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *Ledger) CycleBalance(ctx context.Context, groupID uint64) (*big.Int, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *Ledger) HasClaimed(ctx context.Context, groupID uint64, cycle uint64) (bool, error) {
	args := m.Called(ctx, groupID, cycle)
	return args.Bool(0), args.Error(1)
}

func (m *Ledger) TokenMetadata(ctx context.Context, tokenAddress string) (*models.TokenMetadata, error) {
	args := m.Called(ctx, tokenAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenMetadata), args.Error(1)
}

func (m *Ledger) CreateGroup(ctx context.Context, params *models.CreateGroupParams) (uint64, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *Ledger) Contribute(ctx context.Context, from string, groupID uint64) (string, error) {
	args := m.Called(ctx, from, groupID)
	return args.String(0), args.Error(1)
}

func (m *Ledger) ClaimPool(ctx context.Context, from string, groupID uint64) (string, error) {
	args := m.Called(ctx, from, groupID)
	return args.String(0), args.Error(1)
}
