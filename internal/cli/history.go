package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/soyeahso/imbridge/internal/config"
	"github.com/soyeahso/imbridge/internal/domain"
	"github.com/soyeahso/imbridge/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		accountID string
		limit     int
		prune     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent notifications from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if cfg.Store.Backend != "sqlite" {
				return fmt.Errorf("journal is disabled (store.backend = %q)", cfg.Store.Backend)
			}

			dbPath := paths.Journal(cfg.Store)
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("no journal at %s", dbPath)
			}
			db, err := store.Open(dbPath, log)
			if err != nil {
				return err
			}
			defer db.Close()

			journal, err := store.NewJournal(db)
			if err != nil {
				return err
			}

			if prune > 0 {
				n, err := journal.Prune(time.Now().Add(-prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d notification(s)\n", n)
				return nil
			}

			entries, err := journal.Recent(accountID, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notifications recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tACCOUNT\tKIND\tDETAIL")
			// oldest first reads naturally in a terminal
			for i := len(entries) - 1; i >= 0; i-- {
				n := entries[i]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					n.Timestamp.Local().Format(time.DateTime), n.AccountID, n.Kind, describe(n))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "only show this account")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of entries to show")
	cmd.Flags().DurationVar(&prune, "prune", 0, "delete entries older than this instead of listing")

	return cmd
}

// describe renders the kind-specific part of a notification.
func describe(n domain.Notification) string {
	switch n.Kind {
	case domain.NotifyError:
		return n.Reason
	case domain.NotifyDisconnected:
		if n.AllowReconnect {
			return "reconnect allowed"
		}
		return ""
	case domain.NotifyBuddyAdded, domain.NotifyBuddyRemoved:
		if n.Group != "" {
			return n.Name + " (" + n.Group + ")"
		}
		return n.Name
	case domain.NotifyMessageReceived:
		return "<" + n.Name + "> " + strings.ReplaceAll(n.Message, "\n", " ")
	default:
		return ""
	}
}
