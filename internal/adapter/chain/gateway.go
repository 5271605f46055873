package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"custodial-ledger/config"
	"custodial-ledger/internal/core/domain"
	"custodial-ledger/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// maxBlockRange bounds a single log query.
const maxBlockRange = 5000

// ethBackend is the subset of *ethclient.Client the gateway needs.
type ethBackend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Gateway implements ports.ChainGateway for an ERC-20 style token.
type Gateway struct {
	client     ethBackend
	token      common.Address
	decimals   int32
	gasLimit   uint64
	timeout    time.Duration
	retries    uint64
	newBackoff func() backoff.BackOff
	log        zerolog.Logger
}

// Dial connects to the configured RPC endpoint.
func Dial(ctx context.Context, cfg config.ChainConfig, log zerolog.Logger) (*Gateway, *ethclient.Client, error) {
	if !common.IsHexAddress(cfg.TokenContract) {
		return nil, nil, fmt.Errorf("chain.token_contract is not a valid address: %q", cfg.TokenContract)
	}
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing chain rpc: %w", err)
	}

	log.Info().
		Str("rpc_url", cfg.RPCURL).
		Str("token", cfg.TokenContract).
		Int32("decimals", cfg.TokenDecimals).
		Msg("Chain gateway connected")

	return NewGateway(client, cfg, log), client, nil
}

// NewGateway wraps an RPC backend.
func NewGateway(client ethBackend, cfg config.ChainConfig, log zerolog.Logger) *Gateway {
	return &Gateway{
		client:   client,
		token:    common.HexToAddress(cfg.TokenContract),
		decimals: cfg.TokenDecimals,
		gasLimit: cfg.GasLimit,
		timeout:  cfg.RequestTimeout,
		retries:  cfg.ReadRetries,
		newBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
		log: logger.Component(log, "chain_gateway"),
	}
}

// IsValidAddress reports whether addr is a 20-byte hex address.
func (g *Gateway) IsValidAddress(addr string) bool {
	return common.IsHexAddress(addr)
}

// GetTokenBalance returns the token balance of addr.
func (g *Gateway) GetTokenBalance(ctx context.Context, addr string) (decimal.Decimal, error) {
	if !g.IsValidAddress(addr) {
		return decimal.Zero, domain.ErrInvalidAddress
	}
	data, err := tokenABI.Pack("balanceOf", common.HexToAddress(addr))
	if err != nil {
		return decimal.Zero, fmt.Errorf("pack balanceOf: %w", err)
	}

	var out []byte
	err = g.read(ctx, "balanceOf", func(ctx context.Context) error {
		var callErr error
		out, callErr = g.client.CallContract(ctx, ethereum.CallMsg{To: &g.token, Data: data}, nil)
		return callErr
	})
	if err != nil {
		return decimal.Zero, err
	}

	values, err := tokenABI.Unpack("balanceOf", out)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unpack balanceOf: %w", err)
	}
	if len(values) != 1 {
		return decimal.Zero, fmt.Errorf("unpack balanceOf: got %d values", len(values))
	}
	raw, ok := values[0].(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("unpack balanceOf: unexpected type %T", values[0])
	}
	return fromBaseUnits(raw, g.decimals), nil
}

// Transfer signs and submits a token transfer. It is never retried.
func (g *Gateway) Transfer(ctx context.Context, from, to string, amount decimal.Decimal, credential string) (string, error) {
	if !g.IsValidAddress(from) || !g.IsValidAddress(to) {
		return "", domain.ErrInvalidAddress
	}
	value := toBaseUnits(amount, g.decimals)
	if value.Sign() <= 0 {
		return "", fmt.Errorf("transfer amount %s is below one base unit", amount.String())
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(credential, "0x"))
	if err != nil {
		return "", fmt.Errorf("parse signing key: %w", err)
	}
	sender := common.HexToAddress(from)
	if crypto.PubkeyToAddress(key.PublicKey) != sender {
		return "", errors.New("signing key does not match source address")
	}

	data, err := tokenABI.Pack("transfer", common.HexToAddress(to), value)
	if err != nil {
		return "", fmt.Errorf("pack transfer: %w", err)
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	nonce, err := g.client.PendingNonceAt(ctx, sender)
	if err != nil {
		return "", fmt.Errorf("pending nonce: %w", err)
	}
	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}
	chainID, err := g.client.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("chain id: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &g.token,
		Value:    big.NewInt(0),
		Gas:      g.gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return "", fmt.Errorf("sign transfer: %w", err)
	}
	if err := g.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send transfer: %w", err)
	}

	hash := signed.Hash().Hex()
	g.log.Info().
		Str("from", from).
		Str("to", to).
		Str("amount", amount.String()).
		Str("tx_hash", hash).
		Msg("Token transfer submitted")
	return hash, nil
}

// GetTransactionsSince returns inbound transfers to addr from block cursor
// onward and the cursor to pass next time. A zero cursor starts at the
// current head without returning history.
func (g *Gateway) GetTransactionsSince(ctx context.Context, addr string, cursor domain.ChainCursor) ([]domain.ChainTransfer, domain.ChainCursor, error) {
	if !g.IsValidAddress(addr) {
		return nil, cursor, domain.ErrInvalidAddress
	}

	var head uint64
	err := g.read(ctx, "blockNumber", func(ctx context.Context) error {
		var callErr error
		head, callErr = g.client.BlockNumber(ctx)
		return callErr
	})
	if err != nil {
		return nil, cursor, err
	}
	if cursor == 0 {
		return nil, domain.ChainCursor(head + 1), nil
	}
	from := uint64(cursor)
	if from > head {
		return nil, cursor, nil
	}
	to := head
	if to-from+1 > maxBlockRange {
		to = from + maxBlockRange - 1
	}

	q := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{g.token},
		Topics:    [][]common.Hash{{transferTopic}, nil, {common.BytesToHash(common.HexToAddress(addr).Bytes())}},
	}
	var logs []types.Log
	err = g.read(ctx, "filterLogs", func(ctx context.Context) error {
		var callErr error
		logs, callErr = g.client.FilterLogs(ctx, q)
		return callErr
	})
	if err != nil {
		return nil, cursor, err
	}

	transfers := make([]domain.ChainTransfer, 0, len(logs))
	for i := range logs {
		if t, ok := g.decodeTransfer(&logs[i]); ok {
			transfers = append(transfers, t)
		}
	}
	return transfers, domain.ChainCursor(to + 1), nil
}

// GetTransferEvent looks up the receipt of txHash.
func (g *Gateway) GetTransferEvent(ctx context.Context, txHash string) (*domain.ChainTransfer, error) {
	var receipt *types.Receipt
	err := g.read(ctx, "receipt", func(ctx context.Context) error {
		r, callErr := g.client.TransactionReceipt(ctx, common.HexToHash(txHash))
		if errors.Is(callErr, ethereum.NotFound) {
			return nil
		}
		receipt = r
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, nil
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, domain.ErrTransferReverted
	}

	for _, l := range receipt.Logs {
		if t, ok := g.decodeTransfer(l); ok {
			return &t, nil
		}
	}
	out := &domain.ChainTransfer{TxHash: receipt.TxHash.Hex()}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return out, nil
}

func (g *Gateway) decodeTransfer(l *types.Log) (domain.ChainTransfer, bool) {
	if l.Removed || l.Address != g.token || len(l.Topics) != 3 || l.Topics[0] != transferTopic {
		return domain.ChainTransfer{}, false
	}
	return domain.ChainTransfer{
		TxHash:      l.TxHash.Hex(),
		From:        common.BytesToAddress(l.Topics[1].Bytes()).Hex(),
		To:          common.BytesToAddress(l.Topics[2].Bytes()).Hex(),
		Amount:      fromBaseUnits(new(big.Int).SetBytes(l.Data), g.decimals),
		BlockNumber: l.BlockNumber,
	}, true
}

// read runs an idempotent RPC call with a per-attempt timeout and
// exponential backoff.
func (g *Gateway) read(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	b := backoff.WithContext(backoff.WithMaxRetries(g.newBackoff(), g.retries), ctx)
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		callCtx, cancel := g.withTimeout(ctx)
		defer cancel()
		err := fn(callCtx)
		if err != nil {
			g.log.Debug().Err(err).Str("op", op).Int("attempt", attempt).Msg("Chain read failed")
		}
		return err
	}, b)
	if err != nil {
		return fmt.Errorf("chain %s: %w", op, err)
	}
	return nil
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}
