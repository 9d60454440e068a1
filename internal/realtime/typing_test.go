package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypingStartStopRoundTrip(t *testing.T) {
	typing := NewTypingState()

	typing.Start("t1", "u1", "c1")
	typing.Start("t1", "u1", "c1")
	require.Equal(t, []string{"u1"}, typing.Typists("t1"))

	typing.Stop("t1", "u1")
	require.Empty(t, typing.Typists("t1"))

	// stopping an absent entry is a no-op
	typing.Stop("t1", "u1")
	typing.Stop("never", "u1")
}

func TestTypingRemoveConnOnlyClearsOwnedEntries(t *testing.T) {
	typing := NewTypingState()

	typing.Start("t1", "u1", "c1")
	typing.Start("t2", "u1", "c1")
	typing.Start("t2", "u2", "c9")

	affected := typing.RemoveConn("u1", "c1")
	require.ElementsMatch(t, []string{"t1", "t2"}, affected)
	require.Empty(t, typing.Typists("t1"))
	require.Equal(t, []string{"u2"}, typing.Typists("t2"))
}

func TestTypingReconnectRetagsOwnership(t *testing.T) {
	typing := NewTypingState()

	typing.Start("t1", "u1", "c1")
	// user reconnected and started typing again through the new connection
	typing.Start("t1", "u1", "c2")

	// the stale connection's cleanup must not clear the new entry
	require.Empty(t, typing.RemoveConn("u1", "c1"))
	require.Equal(t, []string{"u1"}, typing.Typists("t1"))

	require.Equal(t, []string{"t1"}, typing.RemoveConn("u1", "c2"))
	require.Empty(t, typing.Typists("t1"))
}
