// Package registry keeps named live SSH sessions, routes operations to the
// correct one, serializes access per session, and tears sessions down on
// request. It is the sole owner of every session it creates.
package registry

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/shlex"

	"sshliaison/errs"
	"sshliaison/log"
	"sshliaison/session"
	"sshliaison/shellexec"
	"sshliaison/sshconfig"
)

// Registry maps host alias to live Session under a single exclusion
// primitive, held across the whole command execution for a given alias so
// that at most one execute is ever in flight per session.
type Registry struct {
	log.LoggerInjectable

	mu          sync.Mutex
	sessions    map[string]*session.Session
	resolver    *sshconfig.Resolver
	establisher *session.Establisher
	executor    *shellexec.Executor
}

// New returns an empty Registry wired to the default resolver, establisher
// and executor.
func New() *Registry {
	return &Registry{
		sessions:    map[string]*session.Session{},
		resolver:    sshconfig.NewResolver(),
		establisher: session.NewEstablisher(),
		executor:    shellexec.NewExecutor(),
	}
}

// SetLogger sets the registry's logger and passes it on to the resolver,
// establisher and executor the registry constructed.
func (r *Registry) SetLogger(logger log.Logger) {
	r.LoggerInjectable.SetLogger(logger)
	log.InjectLogger(logger, r.resolver)
	log.InjectLogger(logger, r.establisher)
	log.InjectLogger(logger, r.executor)
}

// ConnectByAlias resolves alias via the config resolver and establishes a
// session for it, replacing (and disconnecting) any prior session under
// the same alias.
func (r *Registry) ConnectByAlias(alias string) error {
	cfg, err := r.resolver.Resolve(alias)
	if err != nil {
		return err
	}

	sess, err := r.establisher.FromConfig(alias, cfg)
	if err != nil {
		return err
	}

	r.insert(alias, sess)
	return nil
}

// ConnectDirect establishes a session without consulting the config
// resolver, using the key-based authentication ladder.
func (r *Registry) ConnectDirect(alias, user, hostname string, port int) error {
	sess, err := r.establisher.Direct(alias, user, hostname, port)
	if err != nil {
		return err
	}
	r.insert(alias, sess)
	return nil
}

// ConnectWithPassword establishes a session using a single password
// authentication attempt.
func (r *Registry) ConnectWithPassword(alias, user, hostname, password string, port int) error {
	sess, err := r.establisher.WithPassword(alias, user, hostname, password, port)
	if err != nil {
		return err
	}
	r.insert(alias, sess)
	return nil
}

// ConnectShorthand parses a "user@host[:port]" direct-connect shorthand,
// tokenized with shlex so a caller can pass it through the same quoting
// rules as a shell word, and establishes a session for it under alias.
func (r *Registry) ConnectShorthand(alias, shorthand string) error {
	tokens, err := shlex.Split(shorthand)
	if err != nil || len(tokens) != 1 {
		return errs.ErrConfig.Wrapf("invalid connection shorthand %q", shorthand)
	}

	target := tokens[0]
	userHost := strings.SplitN(target, "@", 2)
	if len(userHost) != 2 {
		return errs.ErrConfig.Wrapf("connection shorthand %q must be user@host[:port]", shorthand)
	}

	user, hostPort := userHost[0], userHost[1]
	host, portStr, hasPort := strings.Cut(hostPort, ":")

	port := 22
	if hasPort {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return errs.ErrConfig.Wrapf("invalid port in %q: %w", shorthand, err)
		}
		port = p
	}

	return r.ConnectDirect(alias, user, host, port)
}

// insert adds sess under alias, disconnecting and replacing any existing
// session for that alias first so its server-side state isn't leaked.
func (r *Registry) insert(alias string, sess *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prior, ok := r.sessions[alias]; ok {
		r.Log().Debug("replacing existing session", log.KeyHost, alias)
		_ = prior.Close()
	}

	r.sessions[alias] = sess
	r.Log().Debug("session registered", log.KeyHost, alias)
}

// Execute runs command on the session named by alias, holding the registry
// lock for the whole call so at most one command is in flight per alias and
// so connect/disconnect for that alias can't race a running command.
func (r *Registry) Execute(alias, command, elevationPassword string) (shellexec.CommandOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[alias]
	if !ok {
		return shellexec.CommandOutput{}, errs.ErrNotConnected.Wrapf("no live session for host %q", alias)
	}

	return r.executor.Execute(sess.Stdin, sess.Stdout, command, elevationPassword)
}

// Disconnect removes alias's session, closing its shell channel and SSH
// connection. A missing alias is a no-op.
func (r *Registry) Disconnect(alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[alias]
	if !ok {
		return nil
	}
	delete(r.sessions, alias)
	return sess.Close()
}

// List returns a snapshot of the currently connected aliases.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.sessions))
	for alias := range r.sessions {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// IsConnected reports whether alias currently has a registered session.
func (r *Registry) IsConnected(alias string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[alias]
	return ok
}

// DisconnectAll tears down every session, best-effort, for process
// shutdown.
func (r *Registry) DisconnectAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for alias, sess := range r.sessions {
		_ = sess.Close()
		delete(r.sessions, alias)
	}
}
