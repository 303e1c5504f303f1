package shellexec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMarkerFormat(t *testing.T) {
	m := newMarker()
	require.True(t, strings.HasPrefix(m, "__SSH_CMD_DONE_"))
	require.True(t, strings.HasSuffix(m, "__"))
}

func TestNewMarkerUniquePerCall(t *testing.T) {
	a := newMarker()
	b := newMarker()
	require.NotEqual(t, a, b)
}

func TestOnOwnLineIndexesAtBufferStart(t *testing.T) {
	marker := []byte("__M__")
	idx := onOwnLineIndexes([]byte("__M__\nrest"), marker)
	require.Equal(t, []int{0}, idx)
}

func TestOnOwnLineIndexesMultipleOccurrences(t *testing.T) {
	marker := []byte("__M__")
	buf := []byte("a\n__M__\nb\n__M__\n")
	idx := onOwnLineIndexes(buf, marker)
	require.Len(t, idx, 2)
}

func TestStripEchoLineRemovesCRLFTerminatedEcho(t *testing.T) {
	out := stripEchoLine([]byte("cmd; echo M\r\nactual output\n"), "cmd; echo M")
	require.Equal(t, "actual output\n", string(out))
}
