// Package ledger is the Ledger Client: it submits registration and transfer
// transactions to the ProductRegistry contract and reads ownership back.
package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/rs/zerolog"

	"github.com/supplytrace/provenance/internal/core/domain"
	"github.com/supplytrace/provenance/internal/pkg/metrics"
)

const (
	methodRegister = "registerProduct"
	methodTransfer = "transferProduct"
	methodVerify   = "verifyProduct"

	DefaultGasLimit       uint64 = 500000
	DefaultGasPriceGwei   int64  = 5
	defaultConfirmTimeout        = 2 * time.Minute
)

//go:embed product_registry.abi.json
var registryABI string

// ParseABI returns the parsed ProductRegistry ABI.
func ParseABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(registryABI))
}

// contract is the subset of *bind.BoundContract the client depends on.
type contract interface {
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*types.Transaction, error)
}

// miner blocks until tx is included in a block.
type miner func(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)

// Options tunes transaction submission.
type Options struct {
	GasLimit       uint64
	GasPriceGwei   int64
	ConfirmTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.GasLimit == 0 {
		o.GasLimit = DefaultGasLimit
	}
	if o.GasPriceGwei <= 0 {
		o.GasPriceGwei = DefaultGasPriceGwei
	}
	if o.ConfirmTimeout <= 0 {
		o.ConfirmTimeout = defaultConfirmTimeout
	}
	return o
}

// Client implements ports.Ledger against a deployed ProductRegistry.
type Client struct {
	contract contract
	wait     miner
	auth     *bind.TransactOpts
	gasLimit uint64
	gasPrice *big.Int
	timeout  time.Duration
	log      zerolog.Logger

	// sendMu serialises nonce assignment and broadcast only; confirmation
	// waits run concurrently.
	sendMu sync.Mutex
}

func newClient(c contract, wait miner, auth *bind.TransactOpts, opts Options, log zerolog.Logger) *Client {
	opts = opts.withDefaults()
	return &Client{
		contract: c,
		wait:     wait,
		auth:     auth,
		gasLimit: opts.GasLimit,
		gasPrice: new(big.Int).Mul(big.NewInt(opts.GasPriceGwei), big.NewInt(params.GWei)),
		timeout:  opts.ConfirmTimeout,
		log:      log.With().Str("component", "ledger").Logger(),
	}
}

// Register records an encrypted product on the ledger and waits for its receipt.
func (c *Client) Register(ctx context.Context, p domain.EncryptedProduct) (domain.TxReceipt, error) {
	return c.submit(ctx, methodRegister, p.ProductID,
		p.ProductID, string(p.Name), string(p.BatchNumber), string(p.ManufacturingDate),
		string(p.Description), string(p.Price), p.Manufacturer, p.CurrentOwner)
}

// Transfer moves ownership of productID from one owner label to another.
func (c *Client) Transfer(ctx context.Context, productID, fromLabel, toLabel string) (domain.TxReceipt, error) {
	return c.submit(ctx, methodTransfer, productID, productID, fromLabel, toLabel)
}

// Verify reads the manufacturer and current owner recorded for productID.
// No transaction is sent.
func (c *Client) Verify(ctx context.Context, productID string) (domain.Ownership, error) {
	var out []interface{}
	err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodVerify, productID)
	if err != nil {
		err = classify(methodVerify, err)
		var re *domain.RevertError
		if errors.As(err, &re) && re.NotFound() {
			metrics.LedgerTransactionsTotal.WithLabelValues(methodVerify, "ok").Inc()
			return domain.Ownership{}, domain.ErrProductNotFound
		}
		metrics.LedgerTransactionsTotal.WithLabelValues(methodVerify, resultLabel(err)).Inc()
		return domain.Ownership{}, err
	}
	metrics.LedgerTransactionsTotal.WithLabelValues(methodVerify, "ok").Inc()

	if len(out) != 2 {
		return domain.Ownership{}, fmt.Errorf("%s: unexpected output arity %d: %w", methodVerify, len(out), domain.ErrLedger)
	}
	manufacturer, _ := out[0].(string)
	owner, _ := out[1].(string)
	if manufacturer == "" {
		return domain.Ownership{}, domain.ErrProductNotFound
	}
	return domain.Ownership{Manufacturer: manufacturer, CurrentOwner: owner}, nil
}

func (c *Client) submit(ctx context.Context, method, productID string, args ...interface{}) (domain.TxReceipt, error) {
	log := c.log.With().Str("method", method).Str("product_id", productID).Logger()

	// Dry run first so reverts surface with their reason and no gas is spent.
	if err := c.simulate(ctx, method, args...); err != nil {
		metrics.LedgerTransactionsTotal.WithLabelValues(method, resultLabel(err)).Inc()
		log.Debug().Err(err).Msg("preflight call failed")
		return domain.TxReceipt{}, err
	}

	tx, err := c.send(ctx, method, args...)
	if err != nil {
		err = classify(method, err)
		metrics.LedgerTransactionsTotal.WithLabelValues(method, resultLabel(err)).Inc()
		return domain.TxReceipt{}, err
	}
	hash := tx.Hash().Hex()
	log.Info().Str("tx_hash", hash).Msg("transaction submitted")

	start := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	receipt, err := c.wait(waitCtx, tx)
	if err != nil {
		metrics.LedgerTransactionsTotal.WithLabelValues(method, "pending").Inc()
		log.Warn().Err(err).Str("tx_hash", hash).Msg("confirmation not observed")
		return domain.TxReceipt{}, &domain.PendingTxError{Method: method, TxHash: hash, Err: err}
	}
	metrics.LedgerConfirmationDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if receipt.Status != types.ReceiptStatusSuccessful {
		// Replay against the new head to recover the revert reason.
		rerr := c.simulate(ctx, method, args...)
		var re *domain.RevertError
		if !errors.As(rerr, &re) {
			re = &domain.RevertError{Method: method, Reason: "transaction failed"}
		}
		metrics.LedgerTransactionsTotal.WithLabelValues(method, "reverted").Inc()
		log.Warn().Str("tx_hash", hash).Str("reason", re.Reason).Msg("transaction reverted")
		return domain.TxReceipt{}, re
	}

	metrics.LedgerTransactionsTotal.WithLabelValues(method, "ok").Inc()
	out := domain.TxReceipt{TxHash: hash, GasUsed: receipt.GasUsed}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return out, nil
}

func (c *Client) simulate(ctx context.Context, method string, args ...interface{}) error {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if c.auth != nil {
		opts.From = c.auth.From
	}
	if err := c.contract.Call(opts, &out, method, args...); err != nil {
		return classify(method, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method string, args ...interface{}) (*types.Transaction, error) {
	opts := *c.auth
	opts.Context = ctx
	opts.GasLimit = c.gasLimit
	opts.GasPrice = c.gasPrice

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.contract.Transact(&opts, method, args...)
}

func resultLabel(err error) string {
	var re *domain.RevertError
	switch {
	case errors.As(err, &re):
		return "reverted"
	case errors.Is(err, domain.ErrNetworkUnavailable):
		return "network"
	default:
		return "rejected"
	}
}
