package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"slices"
	"syscall"

	"github.com/soyeahso/imbridge/internal/account"
	"github.com/soyeahso/imbridge/internal/bridge"
	"github.com/soyeahso/imbridge/internal/hooks"
	"github.com/soyeahso/imbridge/internal/host"
	"github.com/soyeahso/imbridge/internal/host/feed"
	"github.com/soyeahso/imbridge/internal/host/irc"
	"github.com/soyeahso/imbridge/internal/store"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		only   []string
		noIRC  bool
		noFeed bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Bridge the configured accounts until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating directories: %w", err)
			}
			closer, err := configureLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer closer.Close()

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hookMgr := hooks.NewManager(log)
			hookMgr.Load(cfg.Hooks)

			notifiers := host.Fanout{
				host.NewLogNotifier(log),
				host.NewHookNotifier(ctx, hookMgr),
			}

			if cfg.Store.Backend == "sqlite" {
				dbPath := paths.Journal(cfg.Store)
				db, err := store.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening journal: %w", err)
				}
				defer db.Close()
				journal, err := store.NewJournal(db)
				if err != nil {
					return err
				}
				notifiers = append(notifiers, journal)
				log.Info().Str("path", dbPath).Msg("journaling notifications")
			}

			var frontend *irc.Frontend
			if cfg.IRC != nil && !noIRC {
				frontend = irc.New(*cfg.IRC, log)
				notifiers = append(notifiers, frontend)
			}

			var events *feed.Server
			if cfg.Feed != nil && !noFeed {
				events = feed.New(*cfg.Feed, log)
				notifiers = append(notifiers, events)
			}

			mgr := account.NewManager(notifiers, log,
				account.WithHooks(hookMgr),
				account.WithSessionOptions(bridge.Options{
					LoginTimeout: cfg.Bridge.LoginTimeout,
					PollInterval: cfg.Bridge.PollInterval,
				}),
			)

			clients := make(map[string]dialed)
			for _, acc := range cfg.Accounts {
				if len(only) > 0 && !slices.Contains(only, acc.ID) {
					continue
				}
				d, err := dial(acc)
				if err != nil {
					return err
				}
				if _, err := mgr.Register(acc, d.client); err != nil {
					return err
				}
				clients[acc.ID] = d
			}
			if mgr.Count() == 0 {
				return errors.New("no accounts to bridge; add one under accounts: in the config")
			}

			hookMgr.Emit(ctx, hooks.Payload{Event: hooks.EventBridgeStart})

			if frontend != nil {
				frontend.Bind(mgr)
				go func() {
					if err := frontend.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
						log.Error().Err(err).Msg("IRC frontend exited with error")
					}
				}()
				defer frontend.Stop()
			}

			if events != nil {
				events.Bind(mgr.Status)
				go func() {
					if err := events.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
						log.Error().Err(err).Msg("notification feed exited with error")
					}
				}()
			}

			if err := mgr.StartAll(ctx); err != nil {
				return fmt.Errorf("starting accounts: %w", err)
			}
			for id, d := range clients {
				if a, ok := mgr.Get(id); ok {
					go playWhenConnected(ctx, a.Session, d)
				}
			}
			log.Info().Int("accounts", mgr.Count()).Msg("bridge running")

			<-ctx.Done()
			log.Info().Msg("shutting down")
			mgr.StopAll()
			hookMgr.Emit(context.Background(), hooks.Payload{Event: hooks.EventBridgeStop})
			hookMgr.Wait()
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&only, "account", nil, "bridge only these account ids (repeatable)")
	cmd.Flags().BoolVar(&noIRC, "no-irc", false, "do not start the IRC frontend even if configured")
	cmd.Flags().BoolVar(&noFeed, "no-feed", false, "do not start the websocket feed even if configured")

	return cmd
}
