package errs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"sshliaison/errs"
)

func TestErrorWrapping(t *testing.T) {
	err := errs.ErrResolve.Wrapf("host %q not found in ssh config", "db-1")
	require.Error(t, err)
	require.Equal(t, `resolve error: host "db-1" not found in ssh config`, err.Error())
	require.True(t, errors.Is(err, errs.ErrResolve))
	require.False(t, errors.Is(err, errs.ErrTransport))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := errs.ErrTransport.Wrap(cause)
	require.Equal(t, cause, errors.Unwrap(err))
	require.True(t, errors.Is(err, errs.ErrTransport))
}

func TestErrorIsThroughWrapfWithCause(t *testing.T) {
	type pathErr struct{ path string }
	_ = pathErr{}
	cause := errors.New("no such file or directory")
	err := errs.ErrConfig.Wrapf("identity file %s: %w", "/home/x/.ssh/id_rsa", cause)
	require.True(t, errors.Is(err, errs.ErrConfig))
	require.Contains(t, err.Error(), "/home/x/.ssh/id_rsa")
}
