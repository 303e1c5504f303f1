package shellexec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanOutputStripsCSI(t *testing.T) {
	require.Equal(t, "RED", string(cleanOutput([]byte("\x1b[31mRED\x1b[0m"))))
}

func TestCleanOutputStripsOSC(t *testing.T) {
	input := "before\x1b]0;window title\x07after"
	require.Equal(t, "beforeafter", string(cleanOutput([]byte(input))))
}

func TestCleanOutputStripsDCS(t *testing.T) {
	input := "keep\x1bPsome dcs payload\x1b\\done"
	require.Equal(t, "keepdone", string(cleanOutput([]byte(input))))
}

func TestCleanOutputTrimsTrailingWhitespaceOnly(t *testing.T) {
	require.Equal(t, "\n  leading kept, trailing gone", string(cleanOutput([]byte("\n  leading kept, trailing gone  \n\t"))))
}
