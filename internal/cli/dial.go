package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/imbridge/internal/bridge"
	"github.com/soyeahso/imbridge/internal/config"
	"github.com/soyeahso/imbridge/internal/remote"
	"github.com/soyeahso/imbridge/internal/remote/sim"
)

// dialed is a remote client plus whatever drives it once the session is up.
type dialed struct {
	client remote.Client
	// play, when set, feeds scripted traffic into client.
	play func(ctx context.Context) error
}

// dial builds the remote client for an account's protocol.
func dial(acc config.AccountConfig) (dialed, error) {
	switch acc.Protocol {
	case "sim", "":
		fx, err := sim.LoadFixture(paths.Fixture(acc.Fixture))
		if err != nil {
			return dialed{}, fmt.Errorf("account %s: %w", acc.ID, err)
		}
		network := fx.Network()
		return dialed{
			client: network,
			play: func(ctx context.Context) error {
				return network.Play(ctx, fx.Script)
			},
		}, nil
	default:
		return dialed{}, fmt.Errorf("account %s: unsupported protocol %q", acc.ID, acc.Protocol)
	}
}

// playWhenConnected starts d.play once sess reaches Connected. Scripted
// traffic queued earlier would be skipped by the login waits.
func playWhenConnected(ctx context.Context, sess *bridge.Session, d dialed) {
	if d.play == nil {
		return
	}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		switch sess.State() {
		case bridge.Connected:
			if err := d.play(ctx); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Str("account", sess.Context().AccountID).Msg("fixture script stopped")
			}
			return
		case bridge.Disconnected:
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
