package sshconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sshliaison/sshconfig"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestResolveBasicHost(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config", "Host db-1\n  HostName 10.0.0.5\n  User deploy\n  Port 2222\n")

	r := &sshconfig.Resolver{Path: path}
	cfg, err := r.Resolve("db-1")
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5", cfg.HostName)
	require.Equal(t, "deploy", cfg.User)
	require.Equal(t, 2222, cfg.Port)
}

func TestResolveInvalidPortLeftUnset(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config", "Host a\n  HostName h\n  User u\n  Port 22xx\n")

	r := &sshconfig.Resolver{Path: path}
	cfg, err := r.Resolve("a")
	require.NoError(t, err)
	require.Equal(t, "h", cfg.HostName)
	require.Equal(t, "u", cfg.User)
	require.Equal(t, 22, cfg.Port) // default applied, invalid directive ignored
}

func TestResolveHostNotFound(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config", "Host a\n  HostName h\n")

	r := &sshconfig.Resolver{Path: path}
	_, err := r.Resolve("ghost")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestResolveWildcardPattern(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config", "Host web-*\n  User www\n  HostName web.internal\n")

	r := &sshconfig.Resolver{Path: path}
	cfg, err := r.Resolve("web-03")
	require.NoError(t, err)
	require.Equal(t, "www", cfg.User)
}

func TestResolveCyclicIncludesTerminates(t *testing.T) {
	dir := t.TempDir()
	pathB := filepath.Join(dir, "b")
	pathA := filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(pathB, []byte("Include "+pathA+"\nHost from-b\n  HostName b-host\n  User b-user\n"), 0o600))
	require.NoError(t, os.WriteFile(pathA, []byte("Include "+pathB+"\nHost from-a\n  HostName a-host\n  User a-user\n"), 0o600))

	r := &sshconfig.Resolver{Path: pathA}
	cfg, err := r.Resolve("from-b")
	require.NoError(t, err)
	require.Equal(t, "b-host", cfg.HostName)

	cfg, err = r.Resolve("from-a")
	require.NoError(t, err)
	require.Equal(t, "a-host", cfg.HostName)
}

func TestResolveTildeExpandedIdentityFile(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	dir := t.TempDir()
	path := writeConfig(t, dir, "config", "Host a\n  HostName h\n  User u\n  IdentityFile ~/.ssh/special_key\n")

	r := &sshconfig.Resolver{Path: path}
	cfg, err := r.Resolve("a")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".ssh", "special_key"), cfg.IdentityFile)
}

func TestResolveProxyCommandQuoteStripping(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config", "Host a\n  HostName h\n  User u\n  ProxyCommand \"nc %h %p\"\n")

	r := &sshconfig.Resolver{Path: path}
	cfg, err := r.Resolve("a")
	require.NoError(t, err)
	require.Equal(t, "nc %h %p", cfg.ProxyCommand)
}

func TestResolveBooleanDirectives(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config", "Host a\n  HostName h\n  User u\n  IdentitiesOnly yes\n  ProxyUseFdpass true\n")

	r := &sshconfig.Resolver{Path: path}
	cfg, err := r.Resolve("a")
	require.NoError(t, err)
	require.True(t, cfg.IdentitiesOnly)
	require.True(t, cfg.ProxyUseFdpass)
}

func TestResolveMissingConfigFile(t *testing.T) {
	r := &sshconfig.Resolver{Path: filepath.Join(t.TempDir(), "does-not-exist")}
	_, err := r.Resolve("anything")
	require.Error(t, err)
}
