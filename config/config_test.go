package config

import (
	"os"
	"path/filepath"
	"testing"

	"curiochain/crypto"
	"curiochain/native/treasury"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if _, err := os.Stat(cfg.OperatorKeystorePath); err != nil {
		t.Fatalf("operator keystore not created: %v", err)
	}
	if cfg.RPCAddress != ":8080" {
		t.Fatalf("unexpected default rpc address %q", cfg.RPCAddress)
	}
	if cfg.NetworkName != "curio-local" {
		t.Fatalf("unexpected default network %q", cfg.NetworkName)
	}
	if cfg.Distribution.Primary.Sum() != 100 {
		t.Fatalf("default distribution not applied: %+v", cfg.Distribution)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	// Loading again parses the persisted file instead of regenerating it.
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if again.RewardsVault != cfg.RewardsVault || again.OperatorVault != cfg.OperatorVault {
		t.Fatalf("vault addresses changed across reloads")
	}
}

func TestLoadParsesEconomics(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	keystorePath := filepath.Join(dir, "operator.keystore")
	contents := `RPCAddress = "0.0.0.0:9000"
DataDir = "./data"
NetworkName = "testnet"
OperatorKeystorePath = "` + keystorePath + `"

[distribution]
minEpochInterval = 600

[distribution.primary]
creator = 70
holders = 20
platform = 6
ecosystem = 4

[treasury]
contentUnlockSeconds = 86400
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Distribution.MinEpochInterval != 600 {
		t.Fatalf("epoch interval not parsed: %d", cfg.Distribution.MinEpochInterval)
	}
	if cfg.Distribution.Primary.Creator != 70 || cfg.Distribution.Primary.Ecosystem != 4 {
		t.Fatalf("primary split not parsed: %+v", cfg.Distribution.Primary)
	}
	if cfg.Treasury.ContentUnlockSeconds != 86_400 {
		t.Fatalf("unlock seconds not parsed: %+v", cfg.Treasury)
	}
	if cfg.Treasury.UnlockFor(treasury.ScopeContent) != 86_400 {
		t.Fatalf("unlock lookup broken")
	}
	if cfg.Treasury.UnlockFor(treasury.ScopeBundle) != 0 {
		t.Fatalf("unset unlock must be zero")
	}
}

func TestValidateRejectsBrokenSplits(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	cfg.Distribution.Primary.Creator = 79
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected validation failure for 99%% split")
	}
}

func TestValidateRejectsSharedVault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	cfg.OperatorVault = cfg.RewardsVault
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected validation failure for shared vault address")
	}
}

func TestVaultAddressesRejectForeignPrefix(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "config.toml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	var raw [20]byte
	raw[0] = 0x42
	cfg.RewardsVault = crypto.NewAddress("xyz", raw[:]).String()
	if _, _, err := cfg.VaultAddresses(); err == nil {
		t.Fatalf("expected rejection of foreign address prefix")
	}

	cfg.RewardsVault = "not-bech32"
	if _, _, err := cfg.VaultAddresses(); err == nil {
		t.Fatalf("expected rejection of malformed address")
	}
}

func TestVaultAddressesRoundTrip(t *testing.T) {
	var raw [20]byte
	raw[0], raw[19] = 0x42, 0x24
	encoded := crypto.NewAddress(crypto.CurioPrefix, raw[:]).String()

	cfg := &Config{RewardsVault: encoded, OperatorVault: defaultVault("vault/operator", "test")}
	rewards, _, err := cfg.VaultAddresses()
	if err != nil {
		t.Fatalf("vault parse failed: %v", err)
	}
	if rewards != raw {
		t.Fatalf("address did not round trip: %x", rewards)
	}
}
