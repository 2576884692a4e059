package gateway

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"curiochain/config"
)

// FileConfig is the YAML deployment file for the gateway. Values present in
// the file override the daemon's gateway block, so operators can retune the
// public surface without touching node economics.
type FileConfig struct {
	Listen             string   `yaml:"listen"`
	JWTSecretEnv       string   `yaml:"jwtSecretEnv"`
	RateLimitPerSecond float64  `yaml:"rateLimitPerSecond"`
	RateLimitBurst     int      `yaml:"rateLimitBurst"`
	AllowedOrigins     []string `yaml:"allowedOrigins"`
}

// LoadConfig merges the YAML file at path over base. An empty path returns
// base unchanged.
func LoadConfig(path string, base config.Gateway) (config.Gateway, error) {
	if strings.TrimSpace(path) == "" {
		return base, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return config.Gateway{}, fmt.Errorf("open gateway config: %w", err)
	}
	defer file.Close()

	var fc FileConfig
	if err := yaml.NewDecoder(file).Decode(&fc); err != nil {
		return config.Gateway{}, fmt.Errorf("decode gateway config: %w", err)
	}
	if strings.TrimSpace(fc.Listen) != "" {
		base.ListenAddress = fc.Listen
	}
	if strings.TrimSpace(fc.JWTSecretEnv) != "" {
		base.JWTSecretEnv = fc.JWTSecretEnv
	}
	if fc.RateLimitPerSecond > 0 {
		base.RateLimitPerSecond = fc.RateLimitPerSecond
	}
	if fc.RateLimitBurst > 0 {
		base.RateLimitBurst = fc.RateLimitBurst
	}
	if fc.AllowedOrigins != nil {
		base.AllowedOrigins = append([]string(nil), fc.AllowedOrigins...)
	}
	return base, nil
}
