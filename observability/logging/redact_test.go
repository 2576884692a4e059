package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSensitiveKeyMatchesCredentialNames(t *testing.T) {
	for _, key := range []string{"jwtSecret", "operator_passphrase", "Authorization", "bearer_token", "private_key"} {
		require.True(t, SensitiveKey(key), "expected %q to be sensitive", key)
	}
	for _, key := range []string{"token", "operator", "treasury", "amount", "pool", "address"} {
		require.False(t, SensitiveKey(key), "expected %q to pass through", key)
	}
}

func TestMaskAttrRedactsOnlySensitiveValues(t *testing.T) {
	masked := maskAttr(slog.String("gateway_secret", "hunter2"))
	require.Equal(t, Redacted, masked.Value.String())

	plain := maskAttr(slog.String("token", "0xabc123"))
	require.Equal(t, "0xabc123", plain.Value.String())

	group := maskAttr(slog.Group("password_policy", slog.String("min", "12")))
	require.Equal(t, slog.KindGroup, group.Value.Kind())
}
