package gateway

import (
	"os"
	"path/filepath"
	"testing"

	"curiochain/config"
)

func TestLoadConfigEmptyPathReturnsBase(t *testing.T) {
	base := config.Gateway{ListenAddress: ":8546", RateLimitPerSecond: 20, RateLimitBurst: 40}
	got, err := LoadConfig("", base)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ListenAddress != base.ListenAddress || got.RateLimitPerSecond != base.RateLimitPerSecond {
		t.Fatalf("expected base config back, got %+v", got)
	}
}

func TestLoadConfigOverridesBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	doc := `
listen: ":9000"
rateLimitPerSecond: 5
allowedOrigins:
  - https://app.curio.example
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	base := config.Gateway{
		ListenAddress:      ":8546",
		JWTSecretEnv:       "CURIO_GATEWAY_JWT_SECRET",
		RateLimitPerSecond: 20,
		RateLimitBurst:     40,
	}
	got, err := LoadConfig(path, base)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ListenAddress != ":9000" {
		t.Fatalf("listen not overridden: %q", got.ListenAddress)
	}
	if got.RateLimitPerSecond != 5 {
		t.Fatalf("rate limit not overridden: %v", got.RateLimitPerSecond)
	}
	if got.RateLimitBurst != 40 {
		t.Fatalf("burst should keep base value, got %d", got.RateLimitBurst)
	}
	if got.JWTSecretEnv != "CURIO_GATEWAY_JWT_SECRET" {
		t.Fatalf("secret env should keep base value, got %q", got.JWTSecretEnv)
	}
	if len(got.AllowedOrigins) != 1 || got.AllowedOrigins[0] != "https://app.curio.example" {
		t.Fatalf("origins not overridden: %v", got.AllowedOrigins)
	}
}

func TestLoadConfigRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	if err := os.WriteFile(path, []byte("listen: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path, config.Gateway{}); err == nil {
		t.Fatalf("expected decode error")
	}
}
