package ledger

import (
	"context"

	"github.com/Armolas/ajo-savings/pkg/models"
)

// TokenReader resolves display metadata for the asset a group contributes in.
type TokenReader interface {
	// TokenMetadata returns the name, symbol and decimals of a token.
	// name(), symbol() and decimals() are each optional on chain, so
	// implementations fill absent values with models.DefaultTokenSymbol and
	// models.DefaultTokenDecimals instead of failing.
	TokenMetadata(ctx context.Context, tokenAddress string) (*models.TokenMetadata, error)
}
