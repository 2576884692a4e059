package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"curiochain/crypto"
	"curiochain/native/distribution"
)

type Config struct {
	RPCAddress           string `toml:"RPCAddress"`
	DataDir              string `toml:"DataDir"`
	JournalPath          string `toml:"JournalPath"`
	NetworkName          string `toml:"NetworkName"`
	OperatorKeystorePath string `toml:"OperatorKeystorePath"`

	// RewardsVault holds undistributed pool rewards; OperatorVault collects
	// the platform share of every sweep. Both are bech32 account addresses.
	RewardsVault  string `toml:"RewardsVault"`
	OperatorVault string `toml:"OperatorVault"`

	Distribution distribution.Config `toml:"distribution"`
	Treasury     Treasury            `toml:"treasury"`
	Gateway      Gateway             `toml:"gateway"`
	Telemetry    Telemetry           `toml:"telemetry"`
}

// Load loads the configuration from the given path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if err := ensureKeystore(path, cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "curio-local"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./curio-data"
	}
	if strings.TrimSpace(cfg.JournalPath) == "" {
		cfg.JournalPath = filepath.Join(cfg.DataDir, "journal.db")
	}
	if cfg.Distribution.MinEpochInterval == 0 && cfg.Distribution.Primary.Sum() == 0 {
		cfg.Distribution = distribution.DefaultConfig()
	}
	if cfg.Treasury == (Treasury{}) {
		cfg.Treasury = DefaultTreasury()
	}
	cfg.Gateway.applyDefaults()
	cfg.Telemetry.applyDefaults()
	if strings.TrimSpace(cfg.RewardsVault) == "" {
		cfg.RewardsVault = defaultVault("vault/rewards", cfg.NetworkName)
	}
	if strings.TrimSpace(cfg.OperatorVault) == "" {
		cfg.OperatorVault = defaultVault("vault/operator", cfg.NetworkName)
	}
}

func ensureKeystore(configPath string, cfg *Config) error {
	keystorePath := cfg.OperatorKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cfg.OperatorKeystorePath != keystorePath {
		cfg.OperatorKeystorePath = keystorePath
		return persist(configPath, cfg)
	}

	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:  ":8080",
		NetworkName: "curio-local",
	}
	cfg.OperatorKeystorePath = keystorePath
	cfg.applyDefaults()

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultVault(label, network string) string {
	derived := crypto.DeriveModuleAddress(label, []byte(network))
	return crypto.NewAddress(crypto.CurioPrefix, derived[:]).String()
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

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "operator.keystore")
}
