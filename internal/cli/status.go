package cli

import (
	"fmt"
	"os"

	"github.com/soyeahso/imbridge/internal/config"
	"github.com/soyeahso/imbridge/internal/host/feed"
	"github.com/soyeahso/imbridge/internal/store"
	"github.com/soyeahso/imbridge/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show imbridge status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "imbridge %s (commit %s)\n\n", version.Version, version.Commit)

			// Show paths
			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:     %s\n", paths.Logs)
			fmt.Fprintf(out, "Fixtures: %s\n", paths.Fixtures)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(out, "Config:   not found (using defaults)")
				} else {
					fmt.Fprintf(out, "Config:   error loading: %v\n", err)
				}
				return nil
			}

			fmt.Fprintf(out, "Bridge:   loginTimeout=%s pollInterval=%s\n",
				cfg.Bridge.LoginTimeout, cfg.Bridge.PollInterval)

			if len(cfg.Accounts) == 0 {
				fmt.Fprintln(out, "Accounts: (none)")
			}
			for _, acc := range cfg.Accounts {
				state := "enabled"
				if acc.Disabled {
					state = "disabled"
				}
				fmt.Fprintf(out, "Account:  id=%s protocol=%s user=%s fixture=%s %s\n",
					acc.ID, acc.Protocol, acc.Username, acc.Fixture, state)
			}

			if irc := cfg.IRC; irc != nil {
				fmt.Fprintf(out, "IRC:      server=%s:%d nick=%s channel=%s tls=%v\n",
					irc.Server, irc.Port, irc.Nick, irc.Channel, irc.UseTLS)
			} else {
				fmt.Fprintln(out, "IRC:      (not configured)")
			}
			if fc := cfg.Feed; fc != nil {
				listen := fc.Listen
				if listen == "" {
					listen = feed.DefaultListen
				}
				fmt.Fprintf(out, "Feed:     ws://%s/events auth=%v\n", listen, fc.Token != "")
			} else {
				fmt.Fprintln(out, "Feed:     (not configured)")
			}

			switch cfg.Store.Backend {
			case "sqlite":
				dbPath := paths.Journal(cfg.Store)
				fmt.Fprintf(out, "Store:    sqlite %s%s\n", dbPath, journalSummary(dbPath))
			default:
				fmt.Fprintf(out, "Store:    %s\n", cfg.Store.Backend)
			}

			if len(cfg.Hooks) > 0 {
				n := 0
				for _, entries := range cfg.Hooks {
					n += len(entries)
				}
				fmt.Fprintf(out, "Hooks:    %d command(s) on %d event(s)\n", n, len(cfg.Hooks))
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}

	return cmd
}

// journalSummary reports how many notifications the journal holds, or
// that it has not been created yet.
func journalSummary(path string) string {
	if _, err := os.Stat(path); err != nil {
		return " (not created)"
	}
	db, err := store.Open(path, log)
	if err != nil {
		return fmt.Sprintf(" (error: %v)", err)
	}
	defer db.Close()
	j, err := store.NewJournal(db)
	if err != nil {
		return fmt.Sprintf(" (error: %v)", err)
	}
	n, err := j.Count("")
	if err != nil {
		return fmt.Sprintf(" (error: %v)", err)
	}
	return fmt.Sprintf(" (%d notifications)", n)
}
