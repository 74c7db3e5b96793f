package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/soyeahso/imbridge/internal/bridge"
	"github.com/soyeahso/imbridge/internal/domain"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var (
		authCode string
		stay     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login <account>",
		Short: "Log one account in, print what the host would see, then log out",
		Long: "login runs a single session against the configured account and prints " +
			"every host notification. Use --auth-code to supply a guard code and " +
			"--stay to keep pumping incoming messages before logging out.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			closer, err := configureLogger(cfg.Logging)
			if err != nil {
				return err
			}
			defer closer.Close()

			acc, ok := cfg.Account(args[0])
			if !ok {
				return fmt.Errorf("account %q is not configured", args[0])
			}
			if authCode == "" {
				authCode = acc.AuthCode
			}

			d, err := dial(acc)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ic := &domain.ConnectionContext{AccountID: acc.ID, Protocol: acc.Protocol}
			sess := bridge.New(ic, d.client, &printNotifier{w: cmd.OutOrStdout()}, bridge.Options{
				LoginTimeout: cfg.Bridge.LoginTimeout,
				PollInterval: cfg.Bridge.PollInterval,
			}, log)

			if err := sess.Login(ctx, acc.Username, acc.Password, authCode); err != nil {
				if errors.Is(err, bridge.ErrSteamGuardRequired) {
					return fmt.Errorf("%w: rerun with --auth-code", err)
				}
				return err
			}

			if stay > 0 {
				runCtx, cancel := context.WithTimeout(ctx, stay)
				go playWhenConnected(runCtx, sess, d)
				err := sess.Run(runCtx)
				cancel()
				if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
					return err
				}
			}

			sess.Logout()
			return nil
		},
	}

	cmd.Flags().StringVar(&authCode, "auth-code", "", "guard code mailed by the network")
	cmd.Flags().DurationVar(&stay, "stay", 0, "keep the session up this long before logging out")

	return cmd
}

// printNotifier writes host notifications as plain lines.
type printNotifier struct {
	w io.Writer
}

func (p *printNotifier) Error(ic *domain.ConnectionContext, reason string) {
	fmt.Fprintf(p.w, "[%s] error: %s\n", ic.AccountID, reason)
}

func (p *printNotifier) Disconnected(ic *domain.ConnectionContext, allowReconnect bool) {
	fmt.Fprintf(p.w, "[%s] disconnected (reconnect=%t)\n", ic.AccountID, allowReconnect)
}

func (p *printNotifier) Connected(ic *domain.ConnectionContext) {
	fmt.Fprintf(p.w, "[%s] connected\n", ic.AccountID)
}

func (p *printNotifier) BuddyAdded(ic *domain.ConnectionContext, name, group string) {
	fmt.Fprintf(p.w, "[%s] + %s\n", ic.AccountID, name)
}

func (p *printNotifier) BuddyRemoved(ic *domain.ConnectionContext, name, group string) {
	fmt.Fprintf(p.w, "[%s] - %s\n", ic.AccountID, name)
}

func (p *printNotifier) MessageReceived(ic *domain.ConnectionContext, name, message string) {
	fmt.Fprintf(p.w, "[%s] <%s> %s\n", ic.AccountID, name, message)
}
