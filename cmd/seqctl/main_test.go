package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sequencer/internal/domain/auth"
	"sequencer/internal/infrastructure/http/v1/dto"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "seq.db"))
	t.Setenv("JWT_SECRET", "cli-secret")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNextAndCurrent(t *testing.T) {
	setupEnv(t)

	for want := int64(1); want <= 2; want++ {
		out, err := run(t, "next", "--tenant", "MBC", "--type", "invoice", "--code1", "INV",
			"--rotate-by", "yearly", "--date", "2024-05-01", "--as", "alice")
		require.NoError(t, err, out)

		var res dto.ResultResponse
		require.NoError(t, json.Unmarshal([]byte(out), &res), out)
		assert.Equal(t, want, res.No)
		assert.Equal(t, "MBC#invoice#2024", res.ID)
	}

	out, err := run(t, "current", "--tenant", "MBC", "--type", "invoice", "--rotate-value", "2024")
	require.NoError(t, err, out)

	var counter dto.CounterResponse
	require.NoError(t, json.Unmarshal([]byte(out), &counter), out)
	assert.Equal(t, int64(2), counter.No)
	assert.Equal(t, "alice", counter.CreatedBy)
}

func TestNext_WithFormat(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "next", "--tenant", "MBC", "--type", "quote", "--code1", "Q",
		"--format", "%%code1%%-%%no#:0>3%%")
	require.NoError(t, err, out)

	var res dto.ResultResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, "Q-001", res.FormattedNo)
}

func TestNext_RequiresTenant(t *testing.T) {
	setupEnv(t)
	t.Setenv("SEQCTL_TENANT", "")

	_, err := run(t, "next", "--type", "invoice", "--code1", "INV")
	assert.Error(t, err)
}

func TestNext_RejectsMemoryStore(t *testing.T) {
	setupEnv(t)
	t.Setenv("STORE_DRIVER", "memory")

	_, err := run(t, "--tenant", "MBC", "next", "--type", "invoice", "--code1", "INV")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER=memory")
}

func TestConfigCommands(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "config", "set", "--tenant", "MBC", "--type", "invoice",
		"--format", "INV-%%no%%", "--start-month", "1")
	require.NoError(t, err, out)

	out, err = run(t, "config", "get", "--tenant", "MBC", "--type", "invoice")
	require.NoError(t, err, out)
	var cfg dto.ConfigResponse
	require.NoError(t, json.Unmarshal([]byte(out), &cfg), out)
	assert.Equal(t, "INV-%%no%%", cfg.Format)
	assert.Equal(t, 1, cfg.StartMonth)

	out, err = run(t, "next", "--tenant", "MBC", "--type", "invoice", "--code1", "x")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"formattedNo": "INV-1"`)

	out, err = run(t, "config", "list", "--tenant", "MBC")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"totalCount": 1`)

	out, err = run(t, "config", "delete", "--tenant", "MBC", "--type", "invoice")
	require.NoError(t, err, out)

	_, err = run(t, "config", "get", "--tenant", "MBC", "--type", "invoice")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "sqlite store is up to date")
}

func TestToken(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "token", "--user", "alice", "--tenant", "MBC", "--perm", auth.PermSequenceGenerate)
	require.NoError(t, err, out)

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)

	jwtConfig := auth.DefaultJWTConfig("cli-secret")
	user, err := auth.NewJWTService(jwtConfig).ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.UserID)
	assert.Equal(t, "MBC", user.TenantCode)
	assert.Equal(t, []string{auth.PermSequenceGenerate}, user.Permissions)
}
