package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sshliaison/sshconfig"
)

func TestFromConfigRequiresHostnameAndUser(t *testing.T) {
	e := NewEstablisher()
	_, err := e.FromConfig("h1", &sshconfig.HostConfig{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing hostname or user")
}

func TestIdentityFileAuthMissingFile(t *testing.T) {
	e := NewEstablisher()
	_, err := e.identityFileAuth(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestAgentAuthUnavailableWithoutSocket(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")
	e := NewEstablisher()
	_, ok := e.agentAuth()
	require.False(t, ok)
}

func TestHostKeyCallbackUsesEnvOverride(t *testing.T) {
	t.Setenv("SSH_KNOWN_HOSTS", os.DevNull)
	e := NewEstablisher()
	cb, err := e.hostKeyCallback()
	require.NoError(t, err)
	require.NotNil(t, cb)
}
