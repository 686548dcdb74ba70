package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ListenAddress string   `toml:"ListenAddress"`
	DataDir       string   `toml:"DataDir"`
	Environment   string   `toml:"Environment"`
	Owner         string   `toml:"Owner"`
	JoinFee       string   `toml:"JoinFee"`
	ReferralFees  []uint64 `toml:"ReferralFees"`
	DefaultFee    uint64   `toml:"DefaultFee"`
	PausedModules []string `toml:"PausedModules"`
	JournalPath   string   `toml:"JournalPath"`

	Logging   Logging   `toml:"logging"`
	Auth      Auth      `toml:"auth"`
	RateLimit RateLimit `toml:"rate_limit"`
	Telemetry Telemetry `toml:"telemetry"`
}

// Load loads the configuration from the given path. A missing file is
// replaced by a default one written to the same path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown key %s", path, undecoded[0].String())
	}

	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration written when no file exists yet.
func Default() *Config {
	cfg := &Config{
		ListenAddress: ":8545",
		DataDir:       "./launchpad-data",
		Environment:   "local",
		Owner:         "owner.local",
		JoinFee:       "0",
		ReferralFees:  []uint64{10, 20, 30},
		PausedModules: []string{},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8545"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./launchpad-data"
	}
	if strings.TrimSpace(c.JoinFee) == "" {
		c.JoinFee = "0"
	}
	if c.PausedModules == nil {
		c.PausedModules = []string{}
	}
	if strings.TrimSpace(c.JournalPath) == "" {
		c.JournalPath = filepath.Join(c.DataDir, "journal.db")
	}
	c.RateLimit.applyDefaults()
	if strings.TrimSpace(c.Telemetry.ServiceName) == "" {
		c.Telemetry.ServiceName = "launchpadd"
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
