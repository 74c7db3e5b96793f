package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/soyeahso/imbridge/internal/config"
)

const defaultCommandTimeout = 10 * time.Second

// Command returns a handler that runs entry.Command through "sh -c" with
// the JSON payload on stdin. The event name is also exported as
// IMBRIDGE_EVENT and the account as IMBRIDGE_ACCOUNT.
func Command(entry config.HookEntry) Handler {
	timeout := defaultCommandTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}
	return func(ctx context.Context, p Payload) error {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding payload: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, "sh", "-c", entry.Command)
		cmd.Stdin = bytes.NewReader(body)
		cmd.Env = append(cmd.Environ(),
			"IMBRIDGE_EVENT="+p.Event,
			"IMBRIDGE_ACCOUNT="+p.Account,
		)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		// children of sh may hold stderr open past the kill
		cmd.WaitDelay = time.Second

		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("hook %q: %w: %s", entry.Command, err, msg)
			}
			return fmt.Errorf("hook %q: %w", entry.Command, err)
		}
		return nil
	}
}

// Load registers a Command handler for every configured hook entry.
// Entries under unknown event names are reported and skipped.
func (m *Manager) Load(cfg config.HooksConfig) {
	for event, entries := range cfg {
		if !Known(event) {
			m.log.Warn().Str("event", event).Msg("ignoring hooks for unknown event")
			continue
		}
		for i, entry := range entries {
			m.On(event, fmt.Sprintf("config:%s#%d", event, i), Command(entry))
		}
	}
}
