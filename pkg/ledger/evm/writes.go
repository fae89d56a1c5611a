package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Armolas/ajo-savings/pkg/ledger"
	"github.com/Armolas/ajo-savings/pkg/models"
)

// transactOpts builds signing options for one write. The gateway can only
// sign as its configured key, so the caller's address must match the signer;
// anything else would submit a transaction on behalf of an address we do not
// control.
func (g *Gateway) transactOpts(ctx context.Context, from string) (*bind.TransactOpts, error) {
	if g.key == nil {
		return nil, fmt.Errorf("%w: no signing key configured", ledger.ErrLedger)
	}
	if from != "" && !strings.EqualFold(from, g.signer.Hex()) {
		return nil, fmt.Errorf("%w: cannot sign for %s, gateway key is %s",
			ledger.ErrLedger, from, strings.ToLower(g.signer.Hex()))
	}
	opts, err := bind.NewKeyedTransactorWithChainID(g.key, g.chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrLedger, err)
	}
	opts.Context = ctx
	return opts, nil
}

// CreateGroup submits createGroup and derives the assigned id from the group
// count once the transaction is mined.
func (g *Gateway) CreateGroup(ctx context.Context, params *models.CreateGroupParams) (uint64, error) {
	opts, err := g.transactOpts(ctx, "")
	if err != nil {
		return 0, err
	}

	members := make([]common.Address, len(params.Members))
	for i, m := range params.Members {
		members[i] = common.HexToAddress(m)
	}

	tx, err := g.contract.Transact(opts, "createGroup",
		params.Name,
		common.HexToAddress(params.TokenAddress),
		params.ContributionAmount,
		new(big.Int).SetUint64(params.CycleWeeks),
		members,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: createGroup: %v", ledger.ErrLedger, err)
	}

	receipt, err := bind.WaitMined(ctx, g.client, tx)
	if err != nil {
		return 0, fmt.Errorf("%w: createGroup tx %s not mined: %v", ledger.ErrLedger, tx.Hash().Hex(), err)
	}
	if receipt.Status == 0 {
		return 0, fmt.Errorf("%w: createGroup tx %s reverted", ledger.ErrLedger, tx.Hash().Hex())
	}

	// Group ids are assigned sequentially, so the new group is count-1 as of
	// the mined state.
	count, err := g.GroupCount(ctx)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: createGroup mined but group count is zero", ledger.ErrLedger)
	}
	return count - 1, nil
}

// Contribute submits contribute(groupId) signed as the member and returns the
// transaction hash without waiting for finality.
func (g *Gateway) Contribute(ctx context.Context, from string, groupID uint64) (string, error) {
	opts, err := g.transactOpts(ctx, from)
	if err != nil {
		return "", err
	}
	tx, err := g.contract.Transact(opts, "contribute", new(big.Int).SetUint64(groupID))
	if err != nil {
		return "", fmt.Errorf("%w: contribute: %v", ledger.ErrLedger, err)
	}
	return tx.Hash().Hex(), nil
}

// ClaimPool submits claimPool(groupId) signed as the recipient and returns
// the transaction hash without waiting for finality.
func (g *Gateway) ClaimPool(ctx context.Context, from string, groupID uint64) (string, error) {
	opts, err := g.transactOpts(ctx, from)
	if err != nil {
		return "", err
	}
	tx, err := g.contract.Transact(opts, "claimPool", new(big.Int).SetUint64(groupID))
	if err != nil {
		return "", fmt.Errorf("%w: claimPool: %v", ledger.ErrLedger, err)
	}
	return tx.Hash().Hex(), nil
}
