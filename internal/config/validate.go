package config

import (
	"fmt"
	"net"
	"slices"
	"strconv"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Protocols lists the account protocols this build can bridge.
var Protocols = []string{"sim"}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	validLogLevels := []string{"silent", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}
	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	if cfg.Bridge.LoginTimeout < 0 {
		add("bridge.loginTimeout", "must not be negative, got %s", cfg.Bridge.LoginTimeout)
	}
	if cfg.Bridge.PollInterval < 0 {
		add("bridge.pollInterval", "must not be negative, got %s", cfg.Bridge.PollInterval)
	}

	seen := make(map[string]bool, len(cfg.Accounts))
	for i, acc := range cfg.Accounts {
		prefix := fmt.Sprintf("accounts[%d]", i)
		switch {
		case acc.ID == "":
			add(prefix+".id", "id is required")
		case seen[acc.ID]:
			add(prefix+".id", "duplicate account id %q", acc.ID)
		}
		seen[acc.ID] = true

		if acc.Username == "" {
			add(prefix+".username", "username is required")
		}
		if acc.Protocol != "" && !slices.Contains(Protocols, acc.Protocol) {
			add(prefix+".protocol", "must be one of %v, got %q", Protocols, acc.Protocol)
		}
		if acc.Protocol == "sim" && acc.Fixture == "" {
			add(prefix+".fixture", "sim accounts need a fixture")
		}
	}

	if irc := cfg.IRC; irc != nil {
		if irc.Server == "" {
			add("irc.server", "server is required")
		}
		if irc.Nick == "" {
			add("irc.nick", "nick is required")
		}
		if irc.Channel == "" {
			add("irc.channel", "control channel is required")
		}
		if irc.Port < 0 || irc.Port > 65535 {
			add("irc.port", "port must be 0-65535, got %d", irc.Port)
		}
		if irc.SASL && irc.Password == "" {
			add("irc.sasl", "SASL requires a password to be set")
		}
	}

	if feed := cfg.Feed; feed != nil && feed.Listen != "" {
		if _, port, err := net.SplitHostPort(feed.Listen); err != nil {
			add("feed.listen", "must be host:port, got %q", feed.Listen)
		} else if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
			add("feed.listen", "port must be 0-65535, got %q", port)
		}
	}

	validBackends := []string{"sqlite", "none"}
	if cfg.Store.Backend != "" && !slices.Contains(validBackends, cfg.Store.Backend) {
		add("store.backend", "must be one of %v, got %q", validBackends, cfg.Store.Backend)
	}

	for event, entries := range cfg.Hooks {
		for i, entry := range entries {
			if entry.Command == "" {
				add(fmt.Sprintf("hooks.%s[%d].command", event, i), "command is required")
			}
			if entry.Timeout < 0 {
				add(fmt.Sprintf("hooks.%s[%d].timeout", event, i), "must not be negative, got %d", entry.Timeout)
			}
		}
	}

	return issues
}
