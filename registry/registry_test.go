package registry

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"sshliaison/session"
)

// fakeReadWriteCloser adapts a bytes.Buffer to io.WriteCloser for tests
// that only need a Session's Stdin field satisfied.
type fakeReadWriteCloser struct {
	*bytes.Buffer
}

func (f *fakeReadWriteCloser) Close() error { return nil }

func TestExecuteOnUnknownAliasIsNotConnected(t *testing.T) {
	r := New()
	_, err := r.Execute("ghost", "echo x", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no live session")
}

func TestDisconnectUnknownAliasIsNoop(t *testing.T) {
	r := New()
	require.NoError(t, r.Disconnect("ghost"))
}

func TestListAndIsConnectedReflectRegisteredSessions(t *testing.T) {
	r := New()
	require.Empty(t, r.List())
	require.False(t, r.IsConnected("h1"))

	r.insert("h1", &session.Session{Alias: "h1", Stdin: &fakeReadWriteCloser{&bytes.Buffer{}}, Stdout: io.Reader(bytes.NewReader(nil))})

	require.True(t, r.IsConnected("h1"))
	require.Equal(t, []string{"h1"}, r.List())

	require.NoError(t, r.Disconnect("h1"))
	require.False(t, r.IsConnected("h1"))
}

func TestConnectShorthandRejectsMissingUser(t *testing.T) {
	r := New()
	err := r.ConnectShorthand("h1", "justahost")
	require.Error(t, err)
	require.Contains(t, err.Error(), "user@host")
}

func TestConnectShorthandRejectsBadPort(t *testing.T) {
	r := New()
	err := r.ConnectShorthand("h1", "deploy@10.0.0.5:notaport")
	require.Error(t, err)
}

func TestInsertReplacesExistingSessionForAlias(t *testing.T) {
	r := New()
	r.insert("h1", &session.Session{Alias: "h1", Stdin: &fakeReadWriteCloser{&bytes.Buffer{}}, Stdout: io.Reader(bytes.NewReader(nil))})
	r.insert("h1", &session.Session{Alias: "h1", Stdin: &fakeReadWriteCloser{&bytes.Buffer{}}, Stdout: io.Reader(bytes.NewReader(nil))})

	require.Equal(t, []string{"h1"}, r.List())
}
