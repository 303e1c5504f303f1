package shellexec

import (
	"regexp"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"
)

var (
	oscRe       *regexp.Regexp
	dcsRe       *regexp.Regexp
	cleanupOnce sync.Once
)

// compileCleanupPatterns compiles the escape-sequence regexes once for the
// lifetime of the process, per the design note that regex compilation here
// is constant and should not be repeated per command.
func compileCleanupPatterns() {
	cleanupOnce.Do(func() {
		// OSC: ESC ] ... BEL
		oscRe = regexp.MustCompile("\x1b\\][^\x07]*\x07")
		// DCS/APC/PM: ESC (P|^|_) ... ESC \
		dcsRe = regexp.MustCompile("\x1b[P^_][\\s\\S]*?\x1b\\\\")
	})
}

// cleanOutput strips CSI, OSC and DCS/APC/PM terminal escape sequences and
// trims trailing whitespace. CSI stripping is delegated to stripansi, which
// implements the same ESC '[' ... letter vocabulary; OSC and DCS/APC/PM have
// no stdlib-adjacent equivalent in the dependency set so they are matched
// with purpose-built regexes. Those two passes run first: stripansi would
// otherwise remove only the leading bytes of an OSC or DCS sequence and
// leave its payload behind.
func cleanOutput(buf []byte) []byte {
	compileCleanupPatterns()

	s := string(buf)
	s = oscRe.ReplaceAllString(s, "")
	s = dcsRe.ReplaceAllString(s, "")
	s = stripansi.Strip(s)
	s = strings.TrimRight(s, " \t\r\n")

	return []byte(s)
}
