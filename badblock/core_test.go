package badblock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amlogic/aml-badblock/nand"
	"github.com/amlogic/aml-badblock/nandsim"
)

// scenarioInfo matches the worked examples this package's algorithms
// are grounded on: a 64-block device with a 4-block reserved tail.
func scenarioInfo() nand.Info {
	return nand.Info{PageSize: 2048, PagesPerBlock: 64, NumBlocks: 64, OOBSize: 64}
}

func scenarioConfig() Config {
	return Config{TableStartBlock: 60, TableEndBlock: 63}
}

func newScenarioCore(t *testing.T) (*Core, *nandsim.Chip) {
	t.Helper()
	chip := nandsim.New(scenarioInfo())
	adapter := nand.NewAdapter(chip)
	core, err := New(adapter, scenarioConfig())
	require.NoError(t, err)
	return core, chip
}

func TestVirginDeviceFirstMarkBadBootstraps(t *testing.T) {
	core, _ := newScenarioCore(t)

	_, err := core.IsBad(5)
	require.ErrorIs(t, err, ErrInternal)

	require.NoError(t, core.MarkBad(5))

	require.Equal(t, uint32(60), core.host.Block)
	require.EqualValues(t, 1, core.host.PECycles)
	require.EqualValues(t, 2, core.gen) // next write carries generation 2
	require.EqualValues(t, 1, core.page)

	bad, err := core.ListBad(0, 64)
	require.NoError(t, err)
	require.Equal(t, []uint32{5}, bad)
}

func TestReopenAfterBootstrapPreservesState(t *testing.T) {
	core, chip := newScenarioCore(t)
	require.NoError(t, core.MarkBad(5))

	adapter := nand.NewAdapter(chip)
	reopened, err := New(adapter, scenarioConfig())
	require.NoError(t, err)

	bad, err := reopened.ListBad(0, 64)
	require.NoError(t, err)
	require.Equal(t, []uint32{5}, bad)
	require.EqualValues(t, 1, reopened.page)
	require.Equal(t, uint32(60), reopened.host.Block)
}

func TestFillingCurrentHostElectsNewReservedBlock(t *testing.T) {
	// A 128-block device leaves 64 ordinary blocks (64..127) outside the
	// 60..63 reserved region to mark after the bootstrap record.
	info := scenarioInfo()
	info.NumBlocks = 128
	chip := nandsim.New(info)
	core, err := New(nand.NewAdapter(chip), scenarioConfig())
	require.NoError(t, err)
	require.NoError(t, core.MarkBad(5)) // bootstraps host at block 60, page_ = 1

	// Pages 1..63 take the first 63 marks; the 64th finds block 60 full.
	for i := uint32(64); i < 128; i++ {
		require.NoError(t, core.MarkBad(i))
	}

	require.NotEqual(t, uint32(60), core.host.Block)
	require.Contains(t, []uint32{61, 62, 63}, core.host.Block)

	entry := core.region.entryForBlock(60)
	require.NotNil(t, entry)
	require.Equal(t, Good, core.table[60], "filling a host must not mark it bad")
}

func TestTornLastRecordIsSkippedNotMarkedBad(t *testing.T) {
	core, chip := newScenarioCore(t)
	require.NoError(t, core.MarkBad(9))  // generation 1 at page 0
	require.NoError(t, core.MarkBad(10)) // generation 2 at page 1

	chip.CorruptOOB(60*64 + 1) // corrupt page 1's OOB: torn final record

	adapter := nand.NewAdapter(chip)
	reopened, err := New(adapter, scenarioConfig())
	require.NoError(t, err)

	bad, err := reopened.ListBad(0, 64)
	require.NoError(t, err)
	require.Equal(t, []uint32{9}, bad) // only generation 1's record survives

	require.NoError(t, reopened.MarkBad(11))
	require.NotEqual(t, uint32(60), reopened.host.Block)

	isBad, err := reopened.IsBad(60)
	require.NoError(t, err)
	require.False(t, isBad, "discovery-time corruption must not mark the host bad")
}

func TestWriteFailureMarksHostBadAndRelocates(t *testing.T) {
	core, chip := newScenarioCore(t)
	require.NoError(t, core.MarkBad(1)) // bootstraps host at block 60

	for p := uint32(0); p < 64; p++ {
		chip.FailWrite(60*64 + p)
	}

	require.NoError(t, core.MarkBad(3))

	isBad, err := core.IsBad(60)
	require.NoError(t, err)
	require.True(t, isBad)
	require.NotEqual(t, uint32(60), core.host.Block)
}

func TestReservedRegionExhaustionLeavesInMemoryChangeUnpersisted(t *testing.T) {
	core, chip := newScenarioCore(t)

	for b := uint32(60); b <= 63; b++ {
		chip.FailErase(b)
	}

	err := core.MarkBad(1)
	require.ErrorIs(t, err, ErrNotFound)

	require.Equal(t, Bad, core.table[1])
}

func TestTornLastRecordWithExhaustedReservedRegionIsNotSupported(t *testing.T) {
	core, chip := newScenarioCore(t)
	require.NoError(t, core.MarkBad(9))  // generation 1 at page 0
	require.NoError(t, core.MarkBad(10)) // generation 2 at page 1

	chip.CorruptOOB(60*64 + 1) // corrupt page 1's OOB: torn final record

	chip.FailErase(61)
	chip.FailErase(62)
	for i := 0; i < DiscoveryReadAttempts; i++ { // block 63 unreadable: omitted, not a relocation candidate
		chip.FailRead(63*64 + uint32(i))
	}

	adapter := nand.NewAdapter(chip)
	reopened, err := New(adapter, scenarioConfig())
	require.NoError(t, err)

	_, err = reopened.ListBad(0, 64)
	require.ErrorIs(t, err, ErrNotSupported)
	require.NotErrorIs(t, err, ErrInternal)
	require.NotErrorIs(t, err, ErrNotFound)
	require.False(t, reopened.found, "a failed forced relocation must not be left looking like completed discovery")

	for i := 0; i < DiscoveryReadAttempts; i++ {
		chip.ClearFailRead(63*64 + uint32(i))
	}

	bad, err := reopened.ListBad(0, 64)
	require.NoError(t, err, "retry with a healthy reserved block must recover")
	require.Equal(t, []uint32{9}, bad)
	require.True(t, reopened.found)
	require.Equal(t, uint32(63), reopened.host.Block)
}

func TestIsBadOutOfRange(t *testing.T) {
	core, _ := newScenarioCore(t)
	require.NoError(t, core.MarkBad(0))

	_, err := core.IsBad(1000)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestListBadInvalidRange(t *testing.T) {
	core, _ := newScenarioCore(t)
	require.NoError(t, core.MarkBad(0))

	_, err := core.ListBad(10, 5)
	require.ErrorIs(t, err, ErrInvalidArgs)

	_, err = core.ListBad(0, 1000)
	require.ErrorIs(t, err, ErrInvalidArgs)
}

func TestMarkBadIsIdempotent(t *testing.T) {
	core, _ := newScenarioCore(t)
	require.NoError(t, core.MarkBad(7))
	genAfterFirst := core.gen

	require.NoError(t, core.MarkBad(7))
	require.Equal(t, genAfterFirst, core.gen, "marking an already-bad block must not persist a new record")
}

func TestNewRejectsUndersizedOOB(t *testing.T) {
	info := scenarioInfo()
	info.OOBSize = 4
	chip := nandsim.New(info)
	adapter := nand.NewAdapter(chip)

	_, err := New(adapter, scenarioConfig())
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestNewRejectsOversizedReservedRange(t *testing.T) {
	chip := nandsim.New(scenarioInfo())
	adapter := nand.NewAdapter(chip)

	_, err := New(adapter, Config{TableStartBlock: 0, TableEndBlock: 63})
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestErrorsAreWrappedForErrorsIs(t *testing.T) {
	core, _ := newScenarioCore(t)
	_, err := core.IsBad(0)
	require.True(t, errors.Is(err, ErrInternal))
}
