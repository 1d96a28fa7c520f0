package scratch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetStateBufferGrowsAndReuses(t *testing.T) {
	s := NewState()

	b1 := s.GetStateBuffer(RecvSlot, 16)
	require.Len(t, b1, 16)
	b1[0] = 0xAB

	b2 := s.GetStateBuffer(RecvSlot, 8)
	require.Len(t, b2, 8)

	b3 := s.GetStateBuffer(RecvSlot, 16)
	require.Len(t, b3, 16)
	require.Equal(t, byte(0xAB), b3[0])
}

func TestBeginEndReentrancyGuard(t *testing.T) {
	s := NewState()
	require.NoError(t, s.Begin())
	require.Error(t, s.Begin())
	s.End()
	require.NoError(t, s.Begin())
	s.End()
}

func TestNameString(t *testing.T) {
	require.Equal(t, "recv_slot", RecvSlot.String())
	require.Equal(t, "scratch.Name(7)", Name(7).String())
}
