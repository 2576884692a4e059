package config

import (
	"strings"

	"curiochain/native/treasury"
)

// Treasury fixes the linear unlock curve length, in seconds, for every
// treasury scope. Zero means deposits unlock immediately.
type Treasury struct {
	ContentUnlockSeconds  int64 `toml:"contentUnlockSeconds"`
	BundleUnlockSeconds   int64 `toml:"bundleUnlockSeconds"`
	CreatorUnlockSeconds  int64 `toml:"creatorUnlockSeconds"`
	PlatformUnlockSeconds int64 `toml:"platformUnlockSeconds"`
}

// DefaultTreasury vests content and bundle sales over a week; creator
// subscriptions and platform fees unlock immediately.
func DefaultTreasury() Treasury {
	return Treasury{
		ContentUnlockSeconds: 7 * 24 * 3600,
		BundleUnlockSeconds:  7 * 24 * 3600,
	}
}

// UnlockFor returns the configured unlock duration for a treasury scope.
func (t Treasury) UnlockFor(scope treasury.ScopeKind) int64 {
	switch scope {
	case treasury.ScopeContent:
		return t.ContentUnlockSeconds
	case treasury.ScopeBundle:
		return t.BundleUnlockSeconds
	case treasury.ScopeCreator:
		return t.CreatorUnlockSeconds
	case treasury.ScopePlatform:
		return t.PlatformUnlockSeconds
	default:
		return 0
	}
}

// Gateway configures the public HTTP surface in front of the RPC server.
type Gateway struct {
	ListenAddress      string   `toml:"ListenAddress"`
	JWTSecretEnv       string   `toml:"JWTSecretEnv"`
	RateLimitPerSecond float64  `toml:"RateLimitPerSecond"`
	RateLimitBurst     int      `toml:"RateLimitBurst"`
	AllowedOrigins     []string `toml:"AllowedOrigins"`
}

func (g *Gateway) applyDefaults() {
	if strings.TrimSpace(g.ListenAddress) == "" {
		g.ListenAddress = ":8546"
	}
	if strings.TrimSpace(g.JWTSecretEnv) == "" {
		g.JWTSecretEnv = "CURIO_GATEWAY_JWT_SECRET"
	}
	if g.RateLimitPerSecond <= 0 {
		g.RateLimitPerSecond = 20
	}
	if g.RateLimitBurst <= 0 {
		g.RateLimitBurst = 40
	}
	if g.AllowedOrigins == nil {
		g.AllowedOrigins = []string{}
	}
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Metrics  bool   `toml:"Metrics"`
	Traces   bool   `toml:"Traces"`
}

func (t *Telemetry) applyDefaults() {
	if strings.TrimSpace(t.Endpoint) == "" {
		t.Endpoint = "localhost:4318"
	}
}
