package leaves

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNullNeverHits(t *testing.T) {
	null := NewNull()

	entry, found := null.Probe(nil)
	require.False(t, found, "The fallback oracle knows no position")
	require.Zero(t, entry.Score)
}
