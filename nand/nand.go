// Package nand defines the NAND controller protocol consumed by the
// bad-block subsystem, and a synchronous adapter over it.
//
// The protocol itself is async and callback-shaped (queue an op, get a
// completion callback later); Adapter turns that into the blocking
// call contract the rest of this module expects, using a single-shot
// channel instead of a completion object + condvar.
package nand

import "fmt"

// Info describes the geometry of the underlying NAND device or
// partition, as returned by Controller.Query.
type Info struct {
	PageSize      uint32
	PagesPerBlock uint32
	NumBlocks     uint32
	OOBSize       uint32
}

// Command identifies the operation carried by an Op.
type Command int

const (
	CmdErase Command = iota
	CmdReadPage
	CmdWritePage
)

func (c Command) String() string {
	switch c {
	case CmdErase:
		return "erase"
	case CmdReadPage:
		return "read-page"
	case CmdWritePage:
		return "write-page"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// Op is a single request submitted to a Controller. Exactly one of the
// erase fields or the page fields is meaningful, depending on Command.
type Op struct {
	Command Command

	// Erase.
	Block     uint32
	NumBlocks uint32

	// ReadPage / WritePage.
	Page    uint32
	Data    []byte
	DataOff int
	OOB     []byte
	OOBOff  int

	done chan error
}

// complete is called by a Controller implementation once the operation
// finishes; it unblocks the goroutine waiting in Adapter.
func (op *Op) complete(status error) {
	op.done <- status
}

// Controller is the protocol exposed by the underlying NAND driver.
// Queue is asynchronous: it must call Complete(op, status) exactly once,
// from any goroutine, once the operation has finished.
type Controller interface {
	Query() (Info, int)
	Queue(op *Op)
}

// Adapter wraps a Controller and exposes synchronous, single-operation
// erase/read/write calls. It owns no buffers itself; callers provide
// data/OOB buffers sized per Info.
type Adapter struct {
	ctrl Controller
	info Info
}

// NewAdapter queries ctrl for its geometry and returns an Adapter ready
// to issue blocking operations against it.
func NewAdapter(ctrl Controller) *Adapter {
	info, _ := ctrl.Query()
	return &Adapter{ctrl: ctrl, info: info}
}

// Info returns the geometry queried at construction time.
func (a *Adapter) Info() Info {
	return a.info
}

func (a *Adapter) submit(op *Op) error {
	op.done = make(chan error, 1)
	a.ctrl.Queue(op)
	return <-op.done
}

// Erase erases a single block and blocks until the controller reports
// completion.
func (a *Adapter) Erase(block uint32) error {
	return a.submit(&Op{Command: CmdErase, Block: block, NumBlocks: 1})
}

// ReadPage reads one page's data into data[dataOff:] and its OOB area
// into oob, blocking until completion.
func (a *Adapter) ReadPage(page uint32, data []byte, dataOff int, oob []byte) error {
	return a.submit(&Op{
		Command: CmdReadPage,
		Page:    page,
		Data:    data,
		DataOff: dataOff,
		OOB:     oob,
	})
}

// WritePage writes one page's data from data[dataOff:] and its OOB area
// from oob, blocking until completion.
func (a *Adapter) WritePage(page uint32, data []byte, dataOff int, oob []byte) error {
	return a.submit(&Op{
		Command: CmdWritePage,
		Page:    page,
		Data:    data,
		DataOff: dataOff,
		OOB:     oob,
	})
}

// Complete reports a completed op's status to whatever goroutine is
// blocked waiting on it. Controller implementations call this from
// their Queue method once the underlying operation finishes.
func Complete(op *Op, status error) {
	op.complete(status)
}
