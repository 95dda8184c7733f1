package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	appLog "hyprcal/internal/log"
)

// NOTE: the calendar file location is intentionally not part of this
// configuration; see ics.DefaultPath.

const envPrefix = "HYPRCAL_"

// BasicAuthConfig holds HTTP Basic Auth credentials for the HTTP API.
type BasicAuthConfig struct {
	Username string `koanf:"username" yaml:"username" json:"username"`
	Password string `koanf:"password" yaml:"password" json:"password"`
}

// Enabled reports whether both credentials are set.
func (b BasicAuthConfig) Enabled() bool {
	return b.Username != "" && b.Password != ""
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address used by `hyprcal serve`.
	Listen string `koanf:"listen" yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level" yaml:"log_level" json:"log_level"`

	// ViewerCommand is started by "view full schedule", e.g.
	// ["thunderbird", "-calendar"].
	ViewerCommand []string `koanf:"viewer_command" yaml:"viewer_command" json:"viewer_command"`

	// TooltipRefresh is a cron-style schedule (e.g. "0 0 * * *") on which
	// the served tooltip is rebuilt.
	TooltipRefresh string `koanf:"tooltip_refresh" yaml:"tooltip_refresh" json:"tooltip_refresh"`

	// BasicAuth, when both fields are set, protects every endpoint except
	// /health.
	BasicAuth BasicAuthConfig `koanf:"basic_auth" yaml:"basic_auth" json:"basic_auth"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         "127.0.0.1:8088",
		LogLevel:       "info",
		ViewerCommand:  []string{"thunderbird", "-calendar"},
		TooltipRefresh: "0 0 * * *",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = def.LogLevel
	}
	if len(c.ViewerCommand) == 0 {
		c.ViewerCommand = def.ViewerCommand
	}
	if c.TooltipRefresh == "" {
		c.TooltipRefresh = def.TooltipRefresh
	}
}

// DefaultPath is ~/.config/hyprcal/config.yaml (or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "hyprcal.yaml"
	}
	return filepath.Join(dir, "hyprcal", "config.yaml")
}

// Load layers defaults, the YAML file at path and HYPRCAL_* environment
// variables, in that order. A nested key is addressed with a double
// underscore: HYPRCAL_BASIC_AUTH__USERNAME.
//
// If the file does not exist, the defaults are written to it first. A
// failure to write them is returned together with a usable config.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		appLog.Info("config file not found; writing defaults", "path", path)
		if err := Save(path, DefaultConfig()); err != nil {
			cfg := DefaultConfig()
			applyEnv(cfg)
			return cfg, err
		}
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(*DefaultConfig(), "koanf"), nil); err != nil {
		return nil, err
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		appLog.Error("error loading config from YAML", err, "path", path)
		return nil, err
	}
	if err := k.Load(envProvider(), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// applyEnv overlays environment variables on cfg without a file layer.
func applyEnv(cfg *Config) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(*cfg, "koanf"), nil); err != nil {
		return
	}
	if err := k.Load(envProvider(), nil); err != nil {
		return
	}
	var out Config
	if err := k.Unmarshal("", &out); err != nil {
		return
	}
	out.Normalize()
	*cfg = out
}

func envProvider() koanf.Provider {
	return env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "__", ".")
			if k == "viewer_command" {
				return k, strings.Fields(v)
			}
			return k, v
		},
	})
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".hyprcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
