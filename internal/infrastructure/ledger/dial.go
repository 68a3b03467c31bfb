package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/supplytrace/provenance/internal/core/domain"
)

const defaultDialTimeout = 10 * time.Second

// Config holds the parameters needed to reach the ledger network.
type Config struct {
	RPCURL          string
	ContractAddress string
	PrivateKey      string // hex, with or without 0x
	Options
}

// Conn is a dialled ledger client together with its RPC connection.
type Conn struct {
	*Client
	rpc *ethclient.Client
}

// Dial connects to the RPC endpoint, resolves the chain id and binds the
// registry contract with a signer for cfg.PrivateKey.
func Dial(ctx context.Context, cfg Config, log zerolog.Logger) (*Conn, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("ledger: invalid contract address %q", cfg.ContractAddress)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("ledger: parse private key: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	ec, err := ethclient.DialContext(dialCtx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("ledger: dial %s: %w: %w", cfg.RPCURL, domain.ErrNetworkUnavailable, err)
	}
	chainID, err := ec.ChainID(dialCtx)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("ledger: chain id: %w: %w", domain.ErrNetworkUnavailable, err)
	}

	parsed, err := ParseABI()
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("ledger: parse abi: %w", err)
	}
	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		ec.Close()
		return nil, fmt.Errorf("ledger: signer: %w", err)
	}

	bound := bind.NewBoundContract(common.HexToAddress(cfg.ContractAddress), parsed, ec, ec, ec)
	wait := func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
		return bind.WaitMined(ctx, ec, tx)
	}

	log.Info().
		Str("rpc", cfg.RPCURL).
		Str("contract", cfg.ContractAddress).
		Str("from", auth.From.Hex()).
		Uint64("chain_id", chainID.Uint64()).
		Msg("ledger connected")

	return &Conn{Client: newClient(bound, wait, auth, cfg.Options, log), rpc: ec}, nil
}

// Ping checks the node answers by fetching the latest block number.
func (c *Conn) Ping(ctx context.Context) error {
	if _, err := c.rpc.BlockNumber(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNetworkUnavailable, err)
	}
	return nil
}

// Close releases the RPC connection.
func (c *Conn) Close() {
	c.rpc.Close()
}
