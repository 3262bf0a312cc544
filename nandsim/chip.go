// Package nandsim is an in-memory fake of the nand.Controller protocol,
// used by tests and by cmd/badblockctl's file-backed demo mode. It is
// modeled on akmistry-flashblock's Chip/EraseBlock (a mutex-guarded
// array of erase blocks, Erase filling each with its blank value) and
// on soypat-fat's BytesBlocks test fixture (a flat []byte standing in
// for a real device).
package nandsim

import (
	"fmt"
	"sync"

	"github.com/amlogic/aml-badblock/nand"
)

// blankByte is the byte value an erased page reads back as. Real NAND
// erases to 0xFF; this simulator erases to 0x00 so that an unwritten
// OOB header's PECycles field decodes as 0: a freshly reserved block's
// first write then carries pe_cycles=1 after the increment. The choice
// is cosmetic: discovery only ever distinguishes "has magic" from
// "doesn't", never the exact blank value.
const blankByte = 0x00

// Chip is a fake NAND device: a flat byte array per block for page
// data, and a parallel OOB array, with optional fault injection.
type Chip struct {
	mu sync.Mutex

	info nand.Info

	data [][]byte // [block][pagesPerBlock*pageSize]
	oob  [][]byte // [block*pagesPerBlock+page][oobSize]

	failErase map[uint32]bool
	failRead  map[uint32]bool // keyed by absolute page index
	failWrite map[uint32]bool
}

// New returns a Chip with the given geometry, fully erased.
func New(info nand.Info) *Chip {
	c := &Chip{
		info:      info,
		data:      make([][]byte, info.NumBlocks),
		oob:       make([][]byte, info.NumBlocks*info.PagesPerBlock),
		failErase: make(map[uint32]bool),
		failRead:  make(map[uint32]bool),
		failWrite: make(map[uint32]bool),
	}
	for b := uint32(0); b < info.NumBlocks; b++ {
		c.eraseLocked(b)
	}
	return c
}

// Query implements nand.Controller.
func (c *Chip) Query() (nand.Info, int) {
	return c.info, 0
}

// Queue implements nand.Controller, completing synchronously (there is
// no real async hardware to wait on) but still honoring the
// Adapter's blocking contract via op's completion channel.
func (c *Chip) Queue(op *nand.Op) {
	var err error
	switch op.Command {
	case nand.CmdErase:
		err = c.erase(op.Block)
	case nand.CmdReadPage:
		err = c.readPage(op.Page, op.Data, op.DataOff, op.OOB)
	case nand.CmdWritePage:
		err = c.writePage(op.Page, op.Data, op.DataOff, op.OOB)
	default:
		err = fmt.Errorf("nandsim: unknown command %v", op.Command)
	}
	nand.Complete(op, err)
}

func (c *Chip) eraseLocked(block uint32) {
	blockBytes := int(c.info.PagesPerBlock) * int(c.info.PageSize)
	buf := make([]byte, blockBytes)
	for i := range buf {
		buf[i] = blankByte
	}
	c.data[block] = buf

	for p := uint32(0); p < c.info.PagesPerBlock; p++ {
		oobBuf := make([]byte, c.info.OOBSize)
		for i := range oobBuf {
			oobBuf[i] = blankByte
		}
		c.oob[block*c.info.PagesPerBlock+p] = oobBuf
	}
}

func (c *Chip) erase(block uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failErase[block] {
		return fmt.Errorf("nandsim: injected erase failure on block %d", block)
	}
	c.eraseLocked(block)
	return nil
}

func (c *Chip) pageByteOffset(page uint32) (block uint32, within uint32) {
	block = page / c.info.PagesPerBlock
	within = page % c.info.PagesPerBlock
	return
}

func (c *Chip) readPage(page uint32, data []byte, dataOff int, oob []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failRead[page] {
		return fmt.Errorf("nandsim: injected read failure on page %d", page)
	}
	block, within := c.pageByteOffset(page)
	start := int(within) * int(c.info.PageSize)
	end := start + int(c.info.PageSize)
	if end > len(c.data[block]) {
		end = len(c.data[block])
	}
	n := end - start
	if dataOff+n > len(data) {
		n = len(data) - dataOff
	}
	copy(data[dataOff:dataOff+n], c.data[block][start:start+n])
	copy(oob, c.oob[page])
	return nil
}

func (c *Chip) writePage(page uint32, data []byte, dataOff int, oob []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failWrite[page] {
		return fmt.Errorf("nandsim: injected write failure on page %d", page)
	}
	block, within := c.pageByteOffset(page)
	start := int(within) * int(c.info.PageSize)
	end := start + int(c.info.PageSize)
	if end > len(c.data[block]) {
		end = len(c.data[block])
	}
	n := end - start
	if dataOff+n > len(data) {
		n = len(data) - dataOff
	}
	copy(c.data[block][start:start+n], data[dataOff:dataOff+n])
	copy(c.oob[page], oob)
	return nil
}

// FailErase injects a permanent erase failure on block.
func (c *Chip) FailErase(block uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failErase[block] = true
}

// ClearFailErase lifts a previously injected erase failure on block, as
// if the block had been replaced. Test fixtures only; real hardware
// doesn't get better.
func (c *Chip) ClearFailErase(block uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.failErase, block)
}

// FailRead injects a permanent read failure on an absolute page index.
func (c *Chip) FailRead(page uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failRead[page] = true
}

// ClearFailRead lifts a previously injected read failure on page. Test
// fixtures only.
func (c *Chip) ClearFailRead(page uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.failRead, page)
}

// FailWrite injects a permanent write failure on an absolute page
// index.
func (c *Chip) FailWrite(page uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failWrite[page] = true
}

// CorruptOOB makes a page unreadable (an injected read failure; the
// stored OOB bytes are left as they are), simulating a torn write: on
// real hardware a partially programmed OOB area typically fails its ECC
// check on read.
func (c *Chip) CorruptOOB(page uint32) {
	c.FailRead(page)
}
