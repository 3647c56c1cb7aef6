package kibi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	require.Equal(t, "0 bytes", Bytes(0))
	require.Equal(t, "1023 bytes", Bytes(1023))
	require.Equal(t, "1 KB", Bytes(1024))
	require.Equal(t, "1 KB", Bytes(2047))
	require.Equal(t, "35 MB", Bytes(35*1024*1024))
	require.Equal(t, "1023 MB", Bytes(1023*1024*1024))
	require.Equal(t, "1 GB", Bytes(1024*1024*1024))
	require.Equal(t, "1 PB", Bytes(1024*1024*1024*1024*1024))
	require.Equal(t, "2048 PB", Bytes(2048*1024*1024*1024*1024*1024))
}
