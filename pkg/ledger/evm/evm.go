// Package evm implements the savings ledger gateway against the Ajo contract
// on an EVM chain, over JSON-RPC via go-ethereum. All reads are eth_call
// views; writes are signed with the gateway's configured key and submitted
// without waiting for finality.
package evm

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/Armolas/ajo-savings/pkg/ledger"
)

// ajoABI is the contract surface the gateway depends on. hasClaimed is the
// claim-record view backing the AlreadyClaimed distinction; a pool whose
// balance reads zero could otherwise be either unclaimed-and-empty or paid out.
const ajoABI = `[
	{"type":"function","stateMutability":"view","name":"groupCount","inputs":[],"outputs":[{"type":"uint256"}]},
	{"type":"function","stateMutability":"view","name":"groups","inputs":[{"type":"uint256"}],"outputs":[{"name":"name","type":"string"},{"name":"token","type":"address"},{"name":"contributionAmount","type":"uint256"},{"name":"cyclePeriod","type":"uint256"},{"name":"currentCycle","type":"uint256"},{"name":"startTime","type":"uint256"}]},
	{"type":"function","stateMutability":"view","name":"getCurrentCycle","inputs":[{"type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","stateMutability":"view","name":"getCurrentCycleBalance","inputs":[{"type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","stateMutability":"view","name":"getMembers","inputs":[{"type":"uint256"}],"outputs":[{"type":"address[]"}]},
	{"type":"function","stateMutability":"view","name":"isMember","inputs":[{"type":"uint256"},{"type":"address"}],"outputs":[{"type":"bool"}]},
	{"type":"function","stateMutability":"view","name":"getGroupsForAddress","inputs":[{"type":"address"}],"outputs":[{"type":"uint256[]"}]},
	{"type":"function","stateMutability":"view","name":"hasContributed","inputs":[{"type":"uint256"},{"type":"address"},{"type":"uint256"}],"outputs":[{"type":"bool"}]},
	{"type":"function","stateMutability":"view","name":"memberContributions","inputs":[{"type":"uint256"},{"type":"address"},{"type":"uint256"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","stateMutability":"view","name":"hasClaimed","inputs":[{"type":"uint256"},{"type":"uint256"}],"outputs":[{"type":"bool"}]},
	{"type":"function","stateMutability":"nonpayable","name":"createGroup","inputs":[{"type":"string"},{"type":"address"},{"type":"uint256"},{"type":"uint256"},{"type":"address[]"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","stateMutability":"nonpayable","name":"contribute","inputs":[{"type":"uint256"}],"outputs":[]},
	{"type":"function","stateMutability":"nonpayable","name":"claimPool","inputs":[{"type":"uint256"}],"outputs":[]}
]`

// erc20MetadataABI covers the three optional metadata views of the asset
// contract. Each is queried independently so a token may implement any subset.
const erc20MetadataABI = `[
	{"type":"function","stateMutability":"view","name":"name","inputs":[],"outputs":[{"type":"string"}]},
	{"type":"function","stateMutability":"view","name":"symbol","inputs":[],"outputs":[{"type":"string"}]},
	{"type":"function","stateMutability":"view","name":"decimals","inputs":[],"outputs":[{"type":"uint8"}]}
]`

// Config holds gateway configuration.
type Config struct {
	// RPCURL is the JSON-RPC endpoint of the chain node.
	RPCURL string
	// ContractAddress is the deployed Ajo contract.
	ContractAddress string
	// PrivateKeyHex signs the gateway's writes. Optional; a gateway without a
	// key can still serve reads.
	PrivateKeyHex string
	// ChainID of the target network, required for signing.
	ChainID int64
}

// Gateway is the EVM-backed savings ledger.
type Gateway struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	ajo      abi.ABI
	erc20    abi.ABI
	address  common.Address
	chainID  *big.Int
	key      *ecdsa.PrivateKey
	signer   common.Address
}

// New dials the RPC endpoint and binds the contract.
func New(cfg Config) (*Gateway, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url required")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.ContractAddress)
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}

	parsedAjo, err := abi.JSON(strings.NewReader(ajoABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse contract abi: %w", err)
	}
	parsedERC20, err := abi.JSON(strings.NewReader(erc20MetadataABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token abi: %w", err)
	}

	address := common.HexToAddress(cfg.ContractAddress)
	g := &Gateway{
		client:   client,
		contract: bind.NewBoundContract(address, parsedAjo, client, client, client),
		ajo:      parsedAjo,
		erc20:    parsedERC20,
		address:  address,
		chainID:  big.NewInt(cfg.ChainID),
	}

	if cfg.PrivateKeyHex != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse signing key: %w", err)
		}
		g.key = key
		g.signer = crypto.PubkeyToAddress(key.PublicKey)
	}

	return g, nil
}

// Make sure we conform to the interface
var _ ledger.Ledger = (*Gateway)(nil)

// SignerAddress returns the address the gateway signs writes with, empty when
// no key is configured.
func (g *Gateway) SignerAddress() string {
	if g.key == nil {
		return ""
	}
	return strings.ToLower(g.signer.Hex())
}

// Close releases the underlying RPC connection.
func (g *Gateway) Close() {
	g.client.Close()
}
