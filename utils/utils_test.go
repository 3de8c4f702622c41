package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestBytesMD5(t *testing.T) {
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", BytesMD5(nil))
	require.Equal(t, "5d41402abc4b2a76b9719d911017c592", BytesMD5([]byte("hello")))
}

func TestIsMD5(t *testing.T) {
	require.True(t, IsMD5("5d41402abc4b2a76b9719d911017c592"))
	require.False(t, IsMD5("5d41402abc4b2a76b9719d911017c59"))
	require.False(t, IsMD5("zz41402abc4b2a76b9719d911017c592"))
}

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	require.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestInitLogger(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	require.NoError(t, InitLogger("release", "warn"))
	require.False(t, Logger.Core().Enabled(zapcore.InfoLevel))
	require.True(t, Logger.Core().Enabled(zapcore.WarnLevel))

	require.NoError(t, InitLogger("debug", ""))
	require.True(t, Logger.Core().Enabled(zapcore.DebugLevel))

	require.Error(t, InitLogger("release", "loud"))
}
