package logging

import (
	"log/slog"
	"strings"
)

// Redacted replaces the value of any attribute whose key names credential
// material. Addresses, token ids, and amounts are public chain data and
// pass through untouched; bearer tokens, passphrases, and signing keys
// must never reach the sink.
const Redacted = "[REDACTED]"

var secretKeyFragments = []string{
	"secret",
	"passphrase",
	"password",
	"authorization",
	"bearer",
	"credential",
	"private_key",
	"jwt",
}

// SensitiveKey reports whether values logged under key must be masked.
func SensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	for _, fragment := range secretKeyFragments {
		if strings.Contains(normalized, fragment) {
			return true
		}
	}
	return false
}

func maskAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindGroup || !SensitiveKey(attr.Key) {
		return attr
	}
	return slog.String(attr.Key, Redacted)
}
