// Package badblock implements the bad-block-management core: a
// persistent, self-relocating Bad Block Table (BBT) stored in a small
// reserved region of a raw NAND device, plus the query/mutate API
// upper layers use to ask about block health.
package badblock

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/amlogic/aml-badblock/nand"
)

// Config supplies the platform metadata needed to locate the reserved
// region, plus optional ambient knobs.
type Config struct {
	// TableStartBlock and TableEndBlock are the inclusive reserved
	// block range dedicated to BBT storage.
	TableStartBlock uint32
	TableEndBlock   uint32

	// Logger is an optional structured logger. If nil, a stderr text
	// logger at Info level is used, mirroring ouroboros-db's
	// Config.Logger/defaultLogger pattern.
	Logger *slog.Logger
}

func defaultLogger() *slog.Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(h)
}

// Core owns the in-memory block status table, the reserved-region
// state, and the generation/host cursor describing the newest BBT
// record. All public entry points serialise through mu.
type Core struct {
	mu sync.Mutex

	adapter *nand.Adapter
	info    nand.Info
	stride  uint32 // pages per BBT record

	cfg Config
	log *slog.Logger

	table  Table
	region *reservedRegion
	host   *ReservedEntry
	page   uint32 // next free page offset within host
	gen    uint16 // generation of the next record to be written

	found  bool // true once discovery has run successfully
	virgin bool // true once discovery has determined the device has no bbt yet

	dataBuf []byte
	oobBuf  []byte
}

// New constructs a Core over adapter, without touching the flash yet.
// Discovery runs lazily on the first query or mutation.
func New(adapter *nand.Adapter, cfg Config) (*Core, error) {
	info := adapter.Info()

	if uint64(oobHeaderSize) > uint64(info.OOBSize) {
		return nil, fmt.Errorf("%w: OOB size %d too small for header (need %d)",
			ErrNotSupported, info.OOBSize, oobHeaderSize)
	}

	region, err := newReservedRegion(cfg.TableStartBlock, cfg.TableEndBlock)
	if err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = defaultLogger()
	}

	stride := (info.NumBlocks + info.PageSize - 1) / info.PageSize
	if stride == 0 {
		stride = 1
	}

	c := &Core{
		adapter: adapter,
		info:    info,
		stride:  stride,
		cfg:     cfg,
		log:     cfg.Logger,
		table:   newTable(info.NumBlocks),
		region:  region,
		dataBuf: make([]byte, stride*info.PageSize),
		oobBuf:  make([]byte, info.OOBSize),
	}
	return c, nil
}

// ensureDiscovered runs discovery lazily, the first time any public API
// is invoked, and again on later calls until a run succeeds. Once a run
// has found a virgin device, discovery is not repeated: ErrInternal is
// returned until MarkBad bootstraps the first table. Callers must hold mu.
func (c *Core) ensureDiscovered() error {
	if c.found {
		return nil
	}
	if c.virgin {
		return fmt.Errorf("%w: no candidate block carries valid bbt magic", ErrInternal)
	}
	return c.discover()
}
