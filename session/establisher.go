package session

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"runtime"
	"strconv"

	"github.com/mattn/go-shellwords"
	homedir "github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/ssh"

	sshagent "sshliaison/pkg/ssh/agent"
	"sshliaison/pkg/ssh/hostkey"

	"sshliaison/abort"
	"sshliaison/errs"
	"sshliaison/log"
	"sshliaison/sshconfig"
	"sshliaison/util"
)

// defaultKeyPaths are probed in this fixed order when no explicit identity
// file is configured and IdentitiesOnly is off; the first one that loads is
// offered after any agent keys, whether or not the agent supplied keys.
var defaultKeyPaths = []string{
	"~/.ssh/id_ed25519",
	"~/.ssh/id_rsa",
	"~/.ssh/id_ecdsa",
	"~/.ssh/id_dsa",
}

// Establisher opens authenticated SSH connections and attaches an
// interactive PTY shell to them.
type Establisher struct {
	log.LoggerInjectable
}

// NewEstablisher returns a ready Establisher.
func NewEstablisher() *Establisher {
	return &Establisher{}
}

// FromConfig opens a session using a resolved HostConfig, running the full
// key-based authentication ladder.
func (e *Establisher) FromConfig(alias string, cfg *sshconfig.HostConfig) (*Session, error) {
	if !cfg.Ready() {
		return nil, errs.ErrConfig.Wrapf("host %q is missing hostname or user", alias)
	}

	clientConfig, err := e.keyLadderConfig(cfg)
	if err != nil {
		return nil, err
	}

	return e.dial(alias, cfg.HostName, cfg.Port, clientConfig)
}

// Direct opens a session without consulting the config resolver, still
// running the key-based authentication ladder.
func (e *Establisher) Direct(alias, user, hostname string, port int) (*Session, error) {
	cfg := &sshconfig.HostConfig{Alias: alias, HostName: hostname, User: user, Port: port}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	return e.FromConfig(alias, cfg)
}

// WithPassword opens a session using a single password authentication
// attempt, bypassing the key ladder entirely.
func (e *Establisher) WithPassword(alias, user, hostname, password string, port int) (*Session, error) {
	if port == 0 {
		port = 22
	}
	if hostname == "" || user == "" {
		return nil, errs.ErrConfig.Wrapf("host %q is missing hostname or user", alias)
	}

	hkc, err := e.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: hkc,
	}

	return e.dial(alias, hostname, port, clientConfig)
}

func (e *Establisher) dial(alias, hostname string, port int, clientConfig *ssh.ClientConfig) (*Session, error) {
	addr := net.JoinHostPort(hostname, strconv.Itoa(port))

	if !util.IsValidAddress(hostname) {
		if _, err := net.LookupHost(hostname); err != nil {
			return nil, errs.ErrResolve.Wrapf("resolve hostname %s: %w", hostname, err)
		}
	}

	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, errs.ErrTransport.Wrapf("dial %s: %w", addr, err)
	}

	shell, stdin, stdout, err := startShell(client)
	if err != nil {
		client.Close()
		return nil, err
	}

	sess := &Session{Alias: alias, client: client, shell: shell, Stdin: stdin, Stdout: stdout}
	e.InjectLoggerTo(sess, log.KeyHost, alias)
	e.Log().Debug("session established", log.KeyHost, alias)

	return sess, nil
}

func startShell(client *ssh.Client) (*ssh.Session, io.WriteCloser, io.Reader, error) {
	shell, err := client.NewSession()
	if err != nil {
		return nil, nil, nil, errs.ErrTransport.Wrapf("open channel: %w", err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := shell.RequestPty("xterm", 40, 160, modes); err != nil {
		shell.Close()
		return nil, nil, nil, errs.ErrTransport.Wrapf("request pty: %w", err)
	}

	stdinPipe, err := shell.StdinPipe()
	if err != nil {
		shell.Close()
		return nil, nil, nil, errs.ErrTransport.Wrapf("stdin pipe: %w", err)
	}

	stdoutPipe, err := shell.StdoutPipe()
	if err != nil {
		shell.Close()
		return nil, nil, nil, errs.ErrTransport.Wrapf("stdout pipe: %w", err)
	}

	if err := shell.Shell(); err != nil {
		shell.Close()
		return nil, nil, nil, errs.ErrTransport.Wrapf("start shell: %w", err)
	}

	return shell, stdinPipe, stdoutPipe, nil
}

// keyLadderConfig builds the ssh.ClientConfig per the authentication
// ladder in §4.2: agent, then explicit identity, then common key paths.
func (e *Establisher) keyLadderConfig(cfg *sshconfig.HostConfig) (*ssh.ClientConfig, error) { //nolint:cyclop
	hkc, err := e.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.User,
		HostKeyCallback: hkc,
	}

	attempted := make([]string, 0, 4)
	var lastErr error

	if !cfg.IdentitiesOnly {
		if auth, ok := e.agentAuth(); ok {
			clientConfig.Auth = append(clientConfig.Auth, auth)
			attempted = append(attempted, "agent")
		}
	}

	switch {
	case cfg.IdentityFile != "":
		auth, err := e.identityFileAuth(cfg.IdentityFile)
		attempted = append(attempted, "identity-file:"+cfg.IdentityFile)
		if err != nil {
			if errors.Is(err, abort.ErrAbort) {
				return nil, err
			}
			if len(clientConfig.Auth) == 0 {
				return nil, errs.ErrKeyAuth.Wrapf("identity file %s: %w", cfg.IdentityFile, err)
			}
			lastErr = err
		} else {
			clientConfig.Auth = append(clientConfig.Auth, auth)
		}
	case !cfg.IdentitiesOnly:
		for _, path := range defaultKeyPaths {
			expanded, err := homedir.Expand(path)
			if err != nil {
				continue
			}
			if _, statErr := os.Stat(expanded); statErr != nil {
				continue
			}
			attempted = append(attempted, "key-path:"+expanded)
			auth, err := e.identityFileAuth(expanded)
			if err != nil {
				lastErr = err
				continue
			}
			clientConfig.Auth = append(clientConfig.Auth, auth)
			break
		}
	}

	if len(clientConfig.Auth) == 0 {
		msg := fmt.Sprintf("no authentication method succeeded, attempted: %v", attempted)
		if lastErr != nil {
			return nil, errs.ErrAuthExhausted.Wrapf("%s: %w", msg, lastErr)
		}
		return nil, errs.ErrAuthExhausted.Wrapf("%s", msg)
	}

	return clientConfig, nil
}

func (e *Establisher) agentAuth() (ssh.AuthMethod, bool) {
	client, err := sshagent.NewClient()
	if err != nil {
		e.Log().Debug("ssh agent unavailable", log.KeyError, err.Error())
		return nil, false
	}
	signers, err := client.Signers()
	if err != nil || len(signers) == 0 {
		return nil, false
	}
	e.Log().Debug("using ssh agent", "signers", len(signers))
	return ssh.PublicKeys(signers...), true
}

func (e *Establisher) identityFileAuth(path string) (ssh.AuthMethod, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, errs.ErrConfig.Wrapf("expand identity file path %s: %w", path, err)
	}

	info, err := os.Stat(expanded)
	if err != nil {
		// a missing explicit identity file is not worth retrying: the path
		// was either misconfigured or the file was never provisioned.
		return nil, errs.ErrConfig.Wrapf("identity file %s does not exist: %w", expanded, fmt.Errorf("%w: %w", abort.ErrAbort, err))
	}

	if runtime.GOOS != "windows" {
		if info.Mode().Perm()&0o077 != 0 {
			e.Log().Warn("identity file has group/other permission bits set", log.KeyFile, expanded)
		}
	}

	key, err := os.ReadFile(expanded)
	if err != nil {
		return nil, errs.ErrKeyAuth.Wrapf("read identity file %s: %w", expanded, err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, errs.ErrKeyAuth.Wrapf("parse identity file %s: %w", expanded, err)
	}

	return ssh.PublicKeys(signer), nil
}

func (e *Establisher) hostKeyCallback() (ssh.HostKeyCallback, error) {
	path, ok := hostkey.KnownHostsPathFromEnv()
	if ok && path != "" {
		// SSH_KNOWN_HOSTS may list more than one candidate path space-separated,
		// same as OpenSSH's UserKnownHostsFile directive.
		if candidates, err := shellwords.Parse(path); err == nil {
			for _, c := range candidates {
				if expanded, err := homedir.Expand(c); err == nil {
					if _, statErr := os.Stat(expanded); statErr == nil {
						path = expanded
						break
					}
				}
			}
		}
	} else {
		var err error
		path, err = homedir.Expand(hostkey.DefaultKnownHostsPath)
		if err != nil {
			return nil, errs.ErrConfig.Wrapf("expand known_hosts path: %w", err)
		}
	}

	cb, err := hostkey.KnownHostsFileCallback(path, false, false)
	if err != nil {
		return nil, errs.ErrTransport.Wrapf("create host key callback: %w", err)
	}
	return cb, nil
}
