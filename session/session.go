// Package session establishes authenticated SSH connections with a
// PTY-attached interactive shell, and models the resulting live session.
package session

import (
	"io"

	"golang.org/x/crypto/ssh"

	"sshliaison/log"
)

// Session is one authenticated SSH connection plus its interactive shell
// channel. It is owned exclusively by the registry entry that holds it;
// the Executor is the only component that reads from or writes to Stdin/
// Stdout while a command is in flight.
type Session struct {
	log.LoggerInjectable

	Alias string

	client *ssh.Client
	shell  *ssh.Session
	Stdin  io.WriteCloser
	Stdout io.Reader
}

// Close tears the shell and underlying SSH connection down. The transport
// has no API for sending a disconnect message with a custom reason string,
// so this best-effort global request stands in for the protocol-level
// "Goodbye" the connection is conceptually closed with.
func (s *Session) Close() error {
	if s.shell != nil {
		_ = s.shell.Close()
	}
	if s.client != nil {
		_, _, _ = s.client.SendRequest("disconnect@sshliaison", false, nil)
		_ = s.client.Conn.Close()
	}
	return nil
}

// IsConnected reports whether the underlying transport still answers.
func (s *Session) IsConnected() bool {
	if s.client == nil || s.client.Conn == nil {
		return false
	}
	_, _, err := s.client.Conn.SendRequest("keepalive@sshliaison", true, nil)
	return err == nil
}
