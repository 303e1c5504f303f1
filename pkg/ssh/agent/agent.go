//go:build !windows

// Package agent provides an implementation of the SSH agent protocol.
package agent

import (
	"net"
	"os"

	"golang.org/x/crypto/ssh/agent"

	"sshliaison/errs"
)

// NewClient returns an SSH agent client if a socket address is defined in
// the SSH_AUTH_SOCK environment variable.
func NewClient() (agent.Agent, error) {
	sshAgentSock := os.Getenv("SSH_AUTH_SOCK")
	if sshAgentSock == "" {
		return nil, errs.ErrTransport.Wrapf("SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sshAgentSock)
	if err != nil {
		return nil, errs.ErrTransport.Wrapf("can't connect to ssh agent at %s: %w", sshAgentSock, err)
	}
	return agent.NewClient(conn), nil
}
