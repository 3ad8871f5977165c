package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_REQUIRED", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("RESPONDER_DRIVER", "")

	cfg := Load()

	// Authenticated operation is the canonical deployment; opting out
	// must be explicit.
	require.True(t, cfg.AuthRequired)
	require.Equal(t, "memory", cfg.StoreDriver)
	require.Equal(t, "webhook", cfg.ResponderDriver)
	require.Equal(t, 10, cfg.HistoryWindow)
	require.Equal(t, "8080", cfg.ServerPort)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_REQUIRED", "false")
	t.Setenv("HISTORY_WINDOW", "25")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")

	cfg := Load()

	require.False(t, cfg.AuthRequired)
	require.Equal(t, 25, cfg.HistoryWindow)
	require.Equal(t, 5*time.Second, cfg.ServerReadTimeout)
}
