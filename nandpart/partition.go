// Package nandpart implements the thin partition multiplexer that sits
// above the bad-block core: it translates partition-relative addresses
// to absolute device addresses and projects the bad block table onto
// each partition's own block range.
package nandpart

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/amlogic/aml-badblock/badblock"
	"github.com/amlogic/aml-badblock/nand"
)

// GUID is a raw 16-byte partition type identifier, modeled on
// soypat-fat's internal/gpt accessors (DiskGUID, PartitionTypeGUID),
// which also represent GUIDs as plain [16]byte rather than a parsed
// type.
type GUID [16]byte

// String renders the GUID as a hex string; partition type GUIDs here
// are opaque identifiers, not RFC 4122 UUIDs, so no dash-grouping is
// attempted.
func (g GUID) String() string {
	return hex.EncodeToString(g[:])
}

// Partition describes one entry of an already-sanitized partition map:
// non-overlapping, erase-block aligned, sorted by FirstBlock. Producing
// a valid map is the externally-supplied sanitization pass; this
// package only trusts it (see AlignPartitions for an optional helper).
type Partition struct {
	FirstBlock uint32
	LastBlock  uint32 // inclusive
	TypeGUID   GUID
	Name       string
}

// NumBlocks returns the partition's block count.
func (p Partition) NumBlocks() uint32 {
	return p.LastBlock - p.FirstBlock + 1
}

var ErrNotSupported = errors.New("nandpart: command not supported on a partition device")

// Device is a single partition's view onto the underlying chip: it
// translates addresses for read/write/erase ops and offsets/caches bad
// block queries against the shared badblock.Core.
type Device struct {
	core    *badblock.Core
	adapter *nand.Adapter
	part    Partition

	badBlockCache []uint32
	cacheLoaded   bool
}

// NewDevice builds a partition device. adapter must address the whole
// underlying chip (not already offset); core is the single bad-block
// authority shared by every partition carved from the same chip.
func NewDevice(core *badblock.Core, adapter *nand.Adapter, part Partition) *Device {
	return &Device{core: core, adapter: adapter, part: part}
}

// Query returns this partition's geometry, with NumBlocks set to the
// partition's size in the parent's block units. The second result, the
// per-op buffer size, is always 0: Adapter does not keep the parent's
// op size, so no parent-plus-op-record size is reported.
func (d *Device) Query() (nand.Info, int) {
	parentInfo := d.adapter.Info()
	info := parentInfo
	info.NumBlocks = d.part.NumBlocks()
	return info, 0
}

// Queue translates a partition-relative op to a device-absolute one
// and issues it against the underlying adapter. Only erase/read/write
// are supported; anything else is ErrNotSupported, matching
// nandpart.cpp's Queue.
func (d *Device) Queue(op *nand.Op) error {
	parentInfo := d.adapter.Info()
	switch op.Command {
	case nand.CmdReadPage:
		translated := *op
		translated.Page += d.part.FirstBlock * parentInfo.PagesPerBlock
		return d.submit(&translated)
	case nand.CmdWritePage:
		translated := *op
		translated.Page += d.part.FirstBlock * parentInfo.PagesPerBlock
		return d.submit(&translated)
	case nand.CmdErase:
		translated := *op
		translated.Block += d.part.FirstBlock
		return d.submit(&translated)
	default:
		return fmt.Errorf("%w: command %v", ErrNotSupported, op.Command)
	}
}

func (d *Device) submit(op *nand.Op) error {
	switch op.Command {
	case nand.CmdReadPage:
		return d.adapter.ReadPage(op.Page, op.Data, op.DataOff, op.OOB)
	case nand.CmdWritePage:
		return d.adapter.WritePage(op.Page, op.Data, op.DataOff, op.OOB)
	case nand.CmdErase:
		return d.adapter.Erase(op.Block)
	default:
		return fmt.Errorf("%w: command %v", ErrNotSupported, op.Command)
	}
}

// ListBad returns this partition's bad block list, block numbers
// relative to the partition's own FirstBlock, caching on first call.
func (d *Device) ListBad() ([]uint32, error) {
	if !d.cacheLoaded {
		bad, err := d.core.ListBad(d.part.FirstBlock, d.part.LastBlock+1)
		if err != nil {
			return nil, err
		}
		d.badBlockCache = make([]uint32, len(bad))
		for i, b := range bad {
			d.badBlockCache[i] = b - d.part.FirstBlock
		}
		d.cacheLoaded = true
	}
	return d.badBlockCache, nil
}

// IsBad reports whether a partition-relative block is bad.
func (d *Device) IsBad(block uint32) (bool, error) {
	if block >= d.part.NumBlocks() {
		return false, fmt.Errorf("%w: block %d", badblock.ErrOutOfRange, block)
	}
	bad, err := d.ListBad()
	if err != nil {
		return false, err
	}
	for _, b := range bad {
		if b == block {
			return true, nil
		}
	}
	return false, nil
}

// MarkBad marks a partition-relative block bad: updates the cached
// list if it has been loaded (an unloaded list picks the block up from
// the core on its first load), then writes through to the shared core.
func (d *Device) MarkBad(block uint32) error {
	if block >= d.part.NumBlocks() {
		return fmt.Errorf("%w: block %d", badblock.ErrOutOfRange, block)
	}
	if d.cacheLoaded {
		d.badBlockCache = append(d.badBlockCache, block)
	}
	return d.core.MarkBad(block + d.part.FirstBlock)
}
