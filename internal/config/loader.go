package config

import (
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} patterns with environment variable values.
// Unset variables and bare $VAR forms are left unchanged, so secrets that
// happen to contain '$' survive.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so passwords can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	for i := range cfg.Accounts {
		cfg.Accounts[i].Password = ExpandEnv(cfg.Accounts[i].Password)
		cfg.Accounts[i].AuthCode = ExpandEnv(cfg.Accounts[i].AuthCode)
	}
	if cfg.IRC != nil {
		cfg.IRC.Password = ExpandEnv(cfg.IRC.Password)
	}
	if cfg.Feed != nil {
		cfg.Feed.Token = ExpandEnv(cfg.Feed.Token)
	}
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// applyDefaults fills zero-value fields left empty by the file.
func applyDefaults(cfg *Config) {
	d := Defaults()
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = d.Logging.ConsoleStyle
	}
	if cfg.Bridge.LoginTimeout == 0 {
		cfg.Bridge.LoginTimeout = d.Bridge.LoginTimeout
	}
	if cfg.Bridge.PollInterval == 0 {
		cfg.Bridge.PollInterval = d.Bridge.PollInterval
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = d.Store.Backend
	}
	for i := range cfg.Accounts {
		if cfg.Accounts[i].Protocol == "" {
			cfg.Accounts[i].Protocol = "sim"
		}
	}
	if cfg.IRC != nil && cfg.IRC.Port == 0 {
		if cfg.IRC.UseTLS {
			cfg.IRC.Port = 6697
		} else {
			cfg.IRC.Port = 6667
		}
	}
}

// applyEnvOverrides reads IMBRIDGE_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IMBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("IMBRIDGE_LOG_STYLE"); v != "" {
		cfg.Logging.ConsoleStyle = strings.ToLower(v)
	}
	if v := os.Getenv("IMBRIDGE_STORE"); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("IMBRIDGE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
}
