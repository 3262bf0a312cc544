package badblock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectHostPicksLowestPECyclesLowestIndexOnTie(t *testing.T) {
	r, err := newReservedRegion(60, 63)
	require.NoError(t, err)

	r.add(ReservedEntry{Block: 60, PECycles: 5, Valid: true})
	r.add(ReservedEntry{Block: 61, PECycles: 2, Valid: true})
	r.add(ReservedEntry{Block: 62, PECycles: 2, Valid: true})
	r.add(ReservedEntry{Block: 63, PECycles: 9, Valid: true})

	host, err := r.selectHost(nil)
	require.NoError(t, err)
	require.Equal(t, uint32(61), host.Block, "ties must break toward the lowest index")
}

func TestSelectHostExcludesCurrent(t *testing.T) {
	r, err := newReservedRegion(60, 63)
	require.NoError(t, err)

	r.add(ReservedEntry{Block: 60, PECycles: 1, Valid: true})
	r.add(ReservedEntry{Block: 61, PECycles: 3, Valid: true})

	current := r.entryForBlock(60)
	host, err := r.selectHost(current)
	require.NoError(t, err)
	require.Equal(t, uint32(61), host.Block)
}

func TestSelectHostSkipsInvalidEntries(t *testing.T) {
	r, err := newReservedRegion(60, 63)
	require.NoError(t, err)

	r.add(ReservedEntry{Block: 60, PECycles: 0, Valid: false})
	r.add(ReservedEntry{Block: 61, PECycles: 4, Valid: true})

	host, err := r.selectHost(nil)
	require.NoError(t, err)
	require.Equal(t, uint32(61), host.Block)
}

func TestSelectHostNotFoundWhenNoValidEntries(t *testing.T) {
	r, err := newReservedRegion(60, 63)
	require.NoError(t, err)
	r.add(ReservedEntry{Block: 60, PECycles: 0, Valid: false})

	_, err = r.selectHost(nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestNewReservedRegionRejectsOversizedSpan(t *testing.T) {
	_, err := newReservedRegion(0, 8) // 9 blocks, max is 8
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestNewReservedRegionRejectsInvertedRange(t *testing.T) {
	_, err := newReservedRegion(10, 5)
	require.ErrorIs(t, err, ErrNotSupported)
}
