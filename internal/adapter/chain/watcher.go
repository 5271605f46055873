package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"custodial-ledger/internal/core/domain"
	"custodial-ledger/internal/core/ports"
	"custodial-ledger/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
)

var errSubscriptionClosed = errors.New("subscription closed")

// Watcher modes.
const (
	ModeAuto      = "auto"
	ModeSubscribe = "subscribe"
	ModePoll      = "poll"
)

// PollingWatcher asks the gateway for new inbound transfers on a ticker.
type PollingWatcher struct {
	gateway  ports.ChainGateway
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	cursors map[string]domain.ChainCursor
}

// NewPollingWatcher creates a poll-loop watcher.
func NewPollingWatcher(gateway ports.ChainGateway, interval time.Duration, log zerolog.Logger) *PollingWatcher {
	return &PollingWatcher{
		gateway:  gateway,
		interval: interval,
		log:      logger.Component(log, "address_watcher").With().Str("mode", ModePoll).Logger(),
		cursors:  make(map[string]domain.ChainCursor),
	}
}

func (w *PollingWatcher) Mode() string { return ModePoll }

// Watch adds addr. Adding it twice is a no-op.
func (w *PollingWatcher) Watch(addr string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.cursors[addr]; !ok {
		w.cursors[addr] = 0
	}
}

// Run polls until ctx is cancelled.
func (w *PollingWatcher) Run(ctx context.Context, sink func(domain.ChainTransfer)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.poll(ctx, sink)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *PollingWatcher) poll(ctx context.Context, sink func(domain.ChainTransfer)) {
	w.mu.Lock()
	snapshot := make(map[string]domain.ChainCursor, len(w.cursors))
	for addr, c := range w.cursors {
		snapshot[addr] = c
	}
	w.mu.Unlock()

	for addr, cursor := range snapshot {
		if ctx.Err() != nil {
			return
		}
		transfers, next, err := w.gateway.GetTransactionsSince(ctx, addr, cursor)
		if err != nil {
			w.log.Warn().Err(err).Str("address", addr).Msg("Polling address failed")
			continue
		}
		w.mu.Lock()
		w.cursors[addr] = next
		w.mu.Unlock()
		for _, t := range transfers {
			sink(t)
		}
	}
}

// logSubscriber is the push half of *ethclient.Client.
type logSubscriber interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// SubscriptionWatcher receives token Transfer logs over a websocket
// subscription and keeps those addressed to a watched account. A dropped
// subscription is re-established with exponential backoff; transfers missed
// while disconnected are picked up by the periodic reconciliation cycle.
type SubscriptionWatcher struct {
	client     logSubscriber
	token      common.Address
	decimals   int32
	newBackoff func() backoff.BackOff
	log        zerolog.Logger

	mu      sync.RWMutex
	watched map[common.Address]struct{}
}

// NewSubscriptionWatcher creates a push-subscription watcher.
func NewSubscriptionWatcher(client logSubscriber, token string, decimals int32, log zerolog.Logger) *SubscriptionWatcher {
	return &SubscriptionWatcher{
		client:   client,
		token:    common.HexToAddress(token),
		decimals: decimals,
		newBackoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
		log:     logger.Component(log, "address_watcher").With().Str("mode", ModeSubscribe).Logger(),
		watched: make(map[common.Address]struct{}),
	}
}

func (w *SubscriptionWatcher) Mode() string { return ModeSubscribe }

func (w *SubscriptionWatcher) Watch(addr string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watched[common.HexToAddress(addr)] = struct{}{}
}

func (w *SubscriptionWatcher) isWatched(a common.Address) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.watched[a]
	return ok
}

// Run forwards matching transfers until ctx is cancelled. Subscription
// failures are logged and retried; they never end the loop.
func (w *SubscriptionWatcher) Run(ctx context.Context, sink func(domain.ChainTransfer)) error {
	b := backoff.WithContext(w.newBackoff(), ctx)
	for {
		subscribed, err := w.consume(ctx, sink)
		if ctx.Err() != nil {
			return nil
		}
		if subscribed {
			b.Reset()
		}
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			return nil
		}
		w.log.Warn().Err(err).Dur("retry_in", wait).Msg("Transfer subscription lost, resubscribing")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// consume runs one subscription until it drops. subscribed reports whether
// the subscribe call itself succeeded.
func (w *SubscriptionWatcher) consume(ctx context.Context, sink func(domain.ChainTransfer)) (subscribed bool, err error) {
	logs := make(chan types.Log, 64)
	q := ethereum.FilterQuery{
		Addresses: []common.Address{w.token},
		Topics:    [][]common.Hash{{transferTopic}},
	}
	sub, err := w.client.SubscribeFilterLogs(ctx, q, logs)
	if err != nil {
		return false, fmt.Errorf("subscribe transfer logs: %w", err)
	}
	defer sub.Unsubscribe()

	w.log.Info().Str("token", w.token.Hex()).Msg("Subscribed to token transfers")

	for {
		select {
		case <-ctx.Done():
			return true, nil
		case err := <-sub.Err():
			if err == nil {
				err = errSubscriptionClosed
			}
			return true, fmt.Errorf("transfer subscription: %w", err)
		case l := <-logs:
			if l.Removed || len(l.Topics) != 3 {
				continue
			}
			to := common.BytesToAddress(l.Topics[2].Bytes())
			if !w.isWatched(to) {
				continue
			}
			sink(domain.ChainTransfer{
				TxHash:      l.TxHash.Hex(),
				From:        common.BytesToAddress(l.Topics[1].Bytes()).Hex(),
				To:          to.Hex(),
				Amount:      fromBaseUnits(new(big.Int).SetBytes(l.Data), w.decimals),
				BlockNumber: l.BlockNumber,
			})
		}
	}
}
