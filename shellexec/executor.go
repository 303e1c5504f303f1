// Package shellexec multiplexes discrete command invocations over a single
// persistent PTY-backed shell, reconstructing per-command boundaries from a
// byte stream that has none of its own.
package shellexec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"sshliaison/byteslice"
	"sshliaison/errs"
	"sshliaison/log"
)

const (
	commandTimeout  = 30 * time.Second
	readTick        = 100 * time.Millisecond
	drainMaxReads   = 10
	drainMaxTimeout = 3
	idleReadLimit   = 10
	idleStaleAfter  = 500 * time.Millisecond
	idlePause       = 50 * time.Millisecond
	errorPause      = 10 * time.Millisecond
)

var sudoPromptSubstrings = []string{"[sudo] password", "Password:"}

// Executor sends commands over a session's shell and reconstructs their
// output from the raw PTY byte stream.
type Executor struct {
	log.LoggerInjectable
}

// NewExecutor returns a ready Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

type readResult struct {
	data []byte
	err  error
}

// Execute writes command followed by a freshly generated completion
// marker to stdin, then reads from stdout until the marker is detected
// (see onOwnLineIndexes) or the command timeout elapses. elevationPassword
// is written once, automatically, if a sudo/password prompt is seen.
func (e *Executor) Execute(stdin io.Writer, stdout io.Reader, command, elevationPassword string) (CommandOutput, error) {
	marker := newMarker()
	echoLine := command + "; echo " + marker

	if _, err := fmt.Fprintf(stdin, "%s\n", echoLine); err != nil {
		return CommandOutput{}, errs.ErrIO.Wrapf("write command: %w", err)
	}

	results := make(chan readResult)
	done := make(chan struct{})
	defer close(done)

	go pumpReads(stdout, results, done)

	var buf bytes.Buffer
	markerBytes := []byte(marker)

	promptAnswered := false
	idleCount := 0
	lastRead := time.Now()
	deadline := time.Now().Add(commandTimeout)

	for {
		if time.Now().After(deadline) {
			return CommandOutput{}, errs.ErrTimeout.Wrapf("command %q timed out after %s", command, commandTimeout)
		}

		select {
		case res, ok := <-results:
			if !ok {
				return e.finish(buf.Bytes(), echoLine, markerBytes), nil
			}

			if len(res.data) > 0 {
				idleCount = 0
				lastRead = time.Now()
				buf.Write(res.data)
				e.logRawChunk(res.data, elevationPassword)
			} else if res.err == nil {
				idleCount++
				time.Sleep(idlePause)
			}

			if !promptAnswered {
				if answered, err := e.answerPromptIfNeeded(stdin, buf.Bytes(), elevationPassword); err != nil {
					return CommandOutput{}, err
				} else if answered {
					promptAnswered = true
				}
			}

			if len(onOwnLineIndexes(buf.Bytes(), markerBytes)) > 0 {
				if err := e.drain(results, &buf); err != nil {
					return CommandOutput{}, err
				}
				return e.finish(buf.Bytes(), echoLine, markerBytes), nil
			}

			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					e.Log().Debug("read loop terminating: remote closed shell stream")
					return e.finish(buf.Bytes(), echoLine, markerBytes), nil
				}
				time.Sleep(errorPause)
				continue
			}

		case <-time.After(readTick):
			if idleCount > idleReadLimit && time.Since(lastRead) > idleStaleAfter {
				e.Log().Debug("read loop terminating without marker: channel appears closed")
				return e.finish(buf.Bytes(), echoLine, markerBytes), nil
			}
		}
	}
}

// drain performs the bounded follow-up read period after an on-own-line
// marker is first seen, collecting whatever arrives right behind it before
// finish truncates the buffer at the last on-own-line marker.
func (e *Executor) drain(results <-chan readResult, buf *bytes.Buffer) error {
	consecutiveTimeouts := 0
	for i := 0; i < drainMaxReads; i++ {
		select {
		case res, ok := <-results:
			if !ok {
				return nil
			}
			if res.err == nil && len(res.data) > 0 {
				buf.Write(res.data)
				consecutiveTimeouts = 0
			}
		case <-time.After(readTick):
			consecutiveTimeouts++
			if consecutiveTimeouts >= drainMaxTimeout {
				return nil
			}
		}
	}
	return nil
}

// finish truncates the buffer at the last on-own-line marker occurrence,
// removes echoed input lines, and strips terminal escape sequences.
func (e *Executor) finish(raw []byte, echoLine string, markerBytes []byte) CommandOutput {
	occurrences := onOwnLineIndexes(raw, markerBytes)
	if len(occurrences) > 0 {
		raw = raw[:occurrences[len(occurrences)-1]]
	}

	cleaned := stripEchoLine(raw, echoLine)
	cleaned = toValidUTF8(cleaned)
	cleaned = cleanOutput(cleaned)

	return CommandOutput{Stdout: string(cleaned)}
}

// toValidUTF8 replaces any ill-formed UTF-8 byte sequence in buf with the
// standard replacement character, since the PTY stream is an untrusted
// byte stream that may split a multi-byte sequence across two reads.
func toValidUTF8(buf []byte) []byte {
	out, _, err := transform.Bytes(runes.ReplaceIllFormed(), buf)
	if err != nil {
		return buf
	}
	return out
}

// logRawChunk emits a trace-granularity debug line for each raw PTY read,
// redacting the elevation password (if any was supplied for this command)
// before it ever reaches the logger.
func (e *Executor) logRawChunk(data []byte, elevationPassword string) {
	redacted := data
	if elevationPassword != "" {
		redacted = byteslice.Redact(data, []byte(elevationPassword))
	}
	e.Log().Debug("raw chunk read", log.KeyComponent, "shellexec", "data", string(redacted))
}

// answerPromptIfNeeded writes the elevation password when a sudo/password
// prompt substring is seen and none has been sent yet for this command.
// Returns ErrPromptUnanswered if a prompt is seen but no password was
// supplied.
func (e *Executor) answerPromptIfNeeded(stdin io.Writer, buf []byte, elevationPassword string) (bool, error) {
	promptSeen := false
	for _, s := range sudoPromptSubstrings {
		if bytes.Contains(buf, []byte(s)) {
			promptSeen = true
			break
		}
	}
	if !promptSeen {
		return false, nil
	}

	if elevationPassword == "" {
		return false, errs.ErrPromptUnanswered.Wrapf("command produced an elevation prompt but no password was supplied")
	}

	if _, err := fmt.Fprintf(stdin, "%s\n", elevationPassword); err != nil {
		return false, errs.ErrIO.Wrapf("write elevation password: %w", err)
	}
	e.Log().Debug("answered elevation prompt", log.KeyElevation, true)

	return true, nil
}

// pumpReads continuously reads from r and forwards chunks (and any read
// error) to out, until r reports io.EOF or done is closed. A non-EOF error
// does not stop the reads, so the main loop can pause and retry. This is the channel half of
// the "select between a read and a timeout" shape: io.Reader has no native
// read-with-timeout, so a dedicated goroutine turns blocking reads into
// values the main loop can select on alongside a ticker.
func pumpReads(r io.Reader, out chan<- readResult, done <-chan struct{}) {
	defer close(out)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		chunk := make([]byte, n)
		copy(chunk, buf[:n])

		select {
		case out <- readResult{data: chunk, err: err}:
		case <-done:
			return
		}

		if errors.Is(err, io.EOF) {
			return
		}
	}
}
