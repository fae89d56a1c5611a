package evm

import (
	"context"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Armolas/ajo-savings/pkg/models"
)

// TokenMetadata reads name(), symbol() and decimals() from the asset
// contract. Each view is optional on chain, so a failed call degrades to the
// documented default instead of failing the whole lookup.
func (g *Gateway) TokenMetadata(ctx context.Context, tokenAddress string) (*models.TokenMetadata, error) {
	token := bind.NewBoundContract(common.HexToAddress(tokenAddress), g.erc20, g.client, g.client, g.client)
	opts := &bind.CallOpts{Context: ctx}

	meta := &models.TokenMetadata{
		Address:  strings.ToLower(tokenAddress),
		Symbol:   models.DefaultTokenSymbol,
		Decimals: models.DefaultTokenDecimals,
	}

	var out []interface{}
	if err := token.Call(opts, &out, "name"); err == nil && len(out) == 1 {
		if name, ok := out[0].(string); ok {
			meta.Name = name
		}
	}

	out = out[:0]
	if err := token.Call(opts, &out, "symbol"); err == nil && len(out) == 1 {
		if symbol, ok := out[0].(string); ok && symbol != "" {
			meta.Symbol = symbol
		}
	}

	out = out[:0]
	if err := token.Call(opts, &out, "decimals"); err == nil && len(out) == 1 {
		if decimals, ok := out[0].(uint8); ok {
			meta.Decimals = decimals
		}
	}

	return meta, nil
}
