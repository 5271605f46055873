package chain

import (
	"context"
	"fmt"

	"custodial-ledger/config"
	"custodial-ledger/internal/core/ports"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// dialSubscriber opens a websocket client. Replaced in tests.
var dialSubscriber = func(ctx context.Context, url string) (logSubscriber, error) {
	return ethclient.DialContext(ctx, url)
}

// NewAddressWatcher selects a watcher variant for the configured mode.
// In auto mode a subscription is used when a websocket endpoint is set and
// reachable; otherwise the watcher polls through gateway.
func NewAddressWatcher(ctx context.Context, wcfg config.WatcherConfig, ccfg config.ChainConfig, gateway ports.ChainGateway, log zerolog.Logger) (ports.AddressWatcher, error) {
	switch wcfg.Mode {
	case ModePoll:
		return NewPollingWatcher(gateway, wcfg.PollInterval, log), nil

	case ModeSubscribe:
		if ccfg.WSURL == "" {
			return nil, fmt.Errorf("watcher mode subscribe requires chain.ws_url")
		}
		client, err := dialSubscriber(ctx, ccfg.WSURL)
		if err != nil {
			return nil, fmt.Errorf("dialing chain websocket: %w", err)
		}
		return NewSubscriptionWatcher(client, ccfg.TokenContract, ccfg.TokenDecimals, log), nil

	case ModeAuto:
		if ccfg.WSURL != "" {
			client, err := dialSubscriber(ctx, ccfg.WSURL)
			if err == nil {
				return NewSubscriptionWatcher(client, ccfg.TokenContract, ccfg.TokenDecimals, log), nil
			}
			log.Warn().Err(err).Str("ws_url", ccfg.WSURL).Msg("Websocket unavailable, falling back to polling")
		}
		return NewPollingWatcher(gateway, wcfg.PollInterval, log), nil

	default:
		return nil, fmt.Errorf("unknown watcher mode %q", wcfg.Mode)
	}
}
