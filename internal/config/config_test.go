package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParsesEnvironment(t *testing.T) {
	t.Setenv("TERMRELAY_GW_URL", "https://gw.example.com/")
	t.Setenv("TERMRELAY_GW_API_KEY_GRAPHQL", "gql-key")
	t.Setenv("TERMRELAY_GW_OPLOG_ID", "7")
	t.Setenv("TERMRELAY_KEYWORDS", "kubectl,ssh,nmap")
	t.Setenv("TERMRELAY_OPERATOR", "neo")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "https://gw.example.com", cfg.GwURL) // trailing slash trimmed
	assert.Equal(t, int64(7), cfg.GwOplogID)
	assert.Equal(t, []string{"kubectl", "ssh", "nmap"}, cfg.Keywords)
	assert.Equal(t, "neo", cfg.Operator)
	assert.True(t, cfg.SyncEnabled())
	assert.False(t, cfg.SaveAllLocal)
	assert.Equal(t, "#desc", cfg.DescToken)
	assert.Equal(t, "#nolog", cfg.NoLogToken)
	assert.Equal(t, "127.0.0.1:8000", cfg.ListenAddr())
}

func TestResolveRejectsNonCommentTokens(t *testing.T) {
	cfg := NewForTesting()
	cfg.DescToken = "desc" // would execute as part of the command
	assert.Error(t, cfg.Resolve())

	cfg = NewForTesting()
	cfg.NoLogToken = "nolog"
	assert.Error(t, cfg.Resolve())
}

func TestResolveRejectsBadTimeoutAndURL(t *testing.T) {
	cfg := NewForTesting()
	cfg.GwTimeoutSecs = 0
	assert.Error(t, cfg.Resolve())

	cfg = NewForTesting()
	cfg.GwURL = "gw.example.com"
	assert.Error(t, cfg.Resolve())
}

func TestResolveForcesLocalFallbackWithoutUpstream(t *testing.T) {
	cfg := NewForTesting()
	require.False(t, cfg.SyncEnabled())
	require.NoError(t, cfg.Resolve())
	assert.True(t, cfg.SaveAllLocal)
}

func TestResolveKeepsSaveAllLocalOffWhenSyncConfigured(t *testing.T) {
	cfg := NewForTesting()
	cfg.GwURL = "https://gw.example.com"
	cfg.GwOplogID = 7
	cfg.GwRestAPIKey = "rest-key"
	require.NoError(t, cfg.Resolve())
	assert.False(t, cfg.SaveAllLocal)
}
