package errs

// The closed set of error kinds the engine can surface to a caller. Each
// is a distinct sentinel so callers can branch with errors.Is instead of
// matching on message text; use Wrap/Wrapf to attach the alias, file path,
// or underlying cause a particular occurrence needs.
var (
	// ErrConfig covers a missing/unreadable ssh config file, a missing
	// required field, or a specified identity file that does not exist.
	ErrConfig = New("configuration error")

	// ErrResolve is returned when a host alias has no matching entry in
	// the ssh config, or DNS resolution of a hostname fails.
	ErrResolve = New("resolve error")

	// ErrTransport covers TCP connect or SSH handshake failures.
	ErrTransport = New("transport error")

	// ErrKeyAuth is returned when one specific key or agent attempt in
	// the authentication ladder fails.
	ErrKeyAuth = New("key authentication failed")

	// ErrAuthExhausted is returned when every branch of the
	// authentication ladder failed.
	ErrAuthExhausted = New("authentication exhausted")

	// ErrNotConnected is returned when an operation names an alias with
	// no live session.
	ErrNotConnected = New("not connected")

	// ErrPromptUnanswered is returned when a command produced an
	// elevation prompt but no password was supplied for it.
	ErrPromptUnanswered = New("prompt unanswered")

	// ErrTimeout is returned when the command deadline elapses before
	// completion is detected.
	ErrTimeout = New("command timeout")

	// ErrIO is returned for unexpected read/write failures on a live
	// channel.
	ErrIO = New("io error")
)
