package shellexec

import (
	"bytes"
	"fmt"
	"time"

	"sshliaison/byteslice"
)

// newMarker returns a fresh per-command sentinel. Uniqueness is only
// required within the command's own execution window, which a nanosecond
// timestamp provides.
func newMarker() string {
	return fmt.Sprintf("__SSH_CMD_DONE_%d__", time.Now().UnixNano())
}

// stripEchoLine removes every occurrence of the line the shell echoes back
// for what this call wrote to stdin, including the line terminator the
// terminal appended after it, so real output isn't left with a stray blank
// line where the echo used to be.
func stripEchoLine(buf []byte, echoLine string) []byte {
	for _, terminator := range []string{"\r\n", "\n"} {
		buf = bytes.ReplaceAll(buf, []byte(echoLine+terminator), nil)
	}
	return bytes.ReplaceAll(buf, []byte(echoLine), nil)
}

// onOwnLineIndexes returns the start offsets of every occurrence of marker
// in buf that begins its own line: preceded by '\n' or at offset 0. This
// distinguishes the real completion marker from its appearance inside the
// echoed "<command>; echo <marker>" input line, which is never aligned to
// the start of a line by itself.
func onOwnLineIndexes(buf, marker []byte) []int {
	var out []int
	for _, pos := range byteslice.IndexAll(buf, marker) {
		if pos == 0 || buf[pos-1] == '\n' {
			out = append(out, pos)
		}
	}
	return out
}
