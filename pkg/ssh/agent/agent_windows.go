//go:build windows

package agent

import (
	"github.com/Microsoft/go-winio"
	"github.com/davidmz/go-pageant"
	"golang.org/x/crypto/ssh/agent"

	"sshliaison/errs"
)

const openSSHAgentPipe = `\\.\pipe\openssh-ssh-agent`

// NewClient on windows returns a pageant client or an open SSH agent client,
// whichever is available.
func NewClient() (agent.Agent, error) {
	if pageant.Available() {
		return pageant.New(), nil
	}
	sock, err := winio.DialPipe(openSSHAgentPipe, nil)
	if err != nil {
		return nil, errs.ErrTransport.Wrapf("can't connect to ssh agent: %w", err)
	}
	return agent.NewClient(sock), nil
}
