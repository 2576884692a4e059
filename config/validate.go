package config

import (
	"fmt"
	"strings"
)

// ValidateConfig checks a loaded configuration for values the node refuses
// to run with.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress must be set")
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("config: DataDir must be set")
	}
	if err := cfg.Distribution.Validate(); err != nil {
		return err
	}
	for _, unlock := range []struct {
		name    string
		seconds int64
	}{
		{"contentUnlockSeconds", cfg.Treasury.ContentUnlockSeconds},
		{"bundleUnlockSeconds", cfg.Treasury.BundleUnlockSeconds},
		{"creatorUnlockSeconds", cfg.Treasury.CreatorUnlockSeconds},
		{"platformUnlockSeconds", cfg.Treasury.PlatformUnlockSeconds},
	} {
		if unlock.seconds < 0 {
			return fmt.Errorf("config: treasury.%s must not be negative", unlock.name)
		}
	}
	rewards, operator, err := cfg.VaultAddresses()
	if err != nil {
		return err
	}
	if rewards == operator {
		return fmt.Errorf("config: RewardsVault and OperatorVault must differ")
	}
	if cfg.Gateway.RateLimitPerSecond <= 0 || cfg.Gateway.RateLimitBurst <= 0 {
		return fmt.Errorf("config: gateway rate limit must be positive")
	}
	return nil
}
