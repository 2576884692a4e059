package config

import (
	"fmt"
	"strings"

	"curiochain/crypto"
)

// VaultAddresses parses the configured vault addresses into runtime values.
func (cfg *Config) VaultAddresses() (rewards [20]byte, operator [20]byte, err error) {
	rewards, err = parseVault("RewardsVault", cfg.RewardsVault)
	if err != nil {
		return [20]byte{}, [20]byte{}, err
	}
	operator, err = parseVault("OperatorVault", cfg.OperatorVault)
	if err != nil {
		return [20]byte{}, [20]byte{}, err
	}
	return rewards, operator, nil
}

func parseVault(field, value string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return [20]byte{}, fmt.Errorf("config: %s must be set", field)
	}
	decoded, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return [20]byte{}, fmt.Errorf("config: invalid %s: %w", field, err)
	}
	if decoded.Prefix() != crypto.CurioPrefix {
		return [20]byte{}, fmt.Errorf("config: %s must use the %q prefix", field, crypto.CurioPrefix)
	}
	var out [20]byte
	copy(out[:], decoded.Bytes())
	return out, nil
}
