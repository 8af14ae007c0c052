package throttle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(Config{TotalNPerSec: 0, TotalBurst: 1, EachKeyNPerSec: 1, EachKeyBurst: 1})
	require.Error(t, err)

	_, err = New(Config{TotalNPerSec: 5, TotalBurst: 1, EachKeyNPerSec: 1, EachKeyBurst: 1})
	require.Error(t, err)
}

// TestAllowPerKey verifies one client exhausting its burst does not block another.
func TestAllowPerKey(t *testing.T) {
	th, err := New(Config{
		TotalNPerSec: 100, TotalBurst: 100,
		EachKeyNPerSec: 1, EachKeyBurst: 2,
	})
	require.NoError(t, err)

	require.True(t, th.Allow("a"))
	require.True(t, th.Allow("a"))
	require.False(t, th.Allow("a"))

	require.True(t, th.Allow("b"))
}

// TestAllowTotal verifies the shared bucket caps all clients together.
func TestAllowTotal(t *testing.T) {
	th, err := New(Config{
		TotalNPerSec: 1, TotalBurst: 2,
		EachKeyNPerSec: 10, EachKeyBurst: 10,
	})
	require.NoError(t, err)

	require.True(t, th.Allow("a"))
	require.True(t, th.Allow("b"))
	require.False(t, th.Allow("c"))
}
