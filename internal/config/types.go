package config

import "time"

// Config is the root configuration for imbridge.
type Config struct {
	Logging  LoggingConfig   `yaml:"logging,omitempty"`
	Bridge   BridgeConfig    `yaml:"bridge,omitempty"`
	Accounts []AccountConfig `yaml:"accounts,omitempty"`
	IRC      *IRCConfig      `yaml:"irc,omitempty"`
	Feed     *FeedConfig     `yaml:"feed,omitempty"`
	Store    StoreConfig     `yaml:"store,omitempty"`
	Hooks    HooksConfig     `yaml:"hooks,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// BridgeConfig tunes every session.
type BridgeConfig struct {
	LoginTimeout time.Duration `yaml:"loginTimeout,omitempty"`
	PollInterval time.Duration `yaml:"pollInterval,omitempty"`
}

// AccountConfig describes one remote account to bridge.
type AccountConfig struct {
	ID       string `yaml:"id"`
	Protocol string `yaml:"protocol,omitempty"` // "sim"
	Username string `yaml:"username"`
	Password string `yaml:"password,omitempty"`
	// AuthCode is the one-time guard code mailed by the network after a
	// denied logon. Leave empty until the network asks for it.
	AuthCode string `yaml:"authCode,omitempty"`
	// Fixture is the YAML script backing a "sim" account.
	Fixture  string `yaml:"fixture,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// IRCConfig configures the IRC frontend. Notifications are posted to
// Channel and lines from Owner in Channel are taken as commands.
type IRCConfig struct {
	Server   string `yaml:"server"`
	Port     int    `yaml:"port,omitempty"`
	Nick     string `yaml:"nick"`
	Password string `yaml:"password,omitempty"`
	Channel  string `yaml:"channel"`
	UseTLS   bool   `yaml:"useTLS,omitempty"`
	SASL     bool   `yaml:"sasl,omitempty"`
	Owner    string `yaml:"owner,omitempty"` // empty accepts commands from anyone in Channel
}

// FeedConfig configures the websocket notification feed.
type FeedConfig struct {
	Listen         string   `yaml:"listen,omitempty"` // defaults to 127.0.0.1:7878
	Token          string   `yaml:"token,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// StoreConfig configures the notification journal.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty"` // "sqlite" | "none"
	Path    string `yaml:"path,omitempty"`    // defaults to <data>/imbridge.db
}

// HooksConfig maps event names to commands run when the event fires.
type HooksConfig map[string][]HookEntry

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
