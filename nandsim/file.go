package nandsim

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/amlogic/aml-badblock/nand"
)

// LoadFile restores a Chip previously persisted by Chip.SaveFile. The
// on-disk format is a small fixed header (geometry) followed by the
// flat data and OOB arrays; good enough for a CLI demo backing store,
// since a page/OOB device doesn't fit any general-purpose image format.
func LoadFile(path string) (*Chip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nandsim: opening %s: %w", path, err)
	}
	defer f.Close()

	var hdr fileHeader
	if err := binary.Read(f, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("nandsim: reading header of %s: %w", path, err)
	}

	info := nand.Info{
		PageSize:      hdr.PageSize,
		PagesPerBlock: hdr.PagesPerBlock,
		NumBlocks:     hdr.NumBlocks,
		OOBSize:       hdr.OOBSize,
	}
	c := New(info)

	for b := uint32(0); b < info.NumBlocks; b++ {
		if _, err := f.Read(c.data[b]); err != nil {
			return nil, fmt.Errorf("nandsim: reading block %d data of %s: %w", b, path, err)
		}
	}
	for p := uint32(0); p < info.NumBlocks*info.PagesPerBlock; p++ {
		if _, err := f.Read(c.oob[p]); err != nil {
			return nil, fmt.Errorf("nandsim: reading page %d oob of %s: %w", p, path, err)
		}
	}
	return c, nil
}

// SaveFile persists the chip's full contents to path, overwriting any
// existing file.
func (c *Chip) SaveFile(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("nandsim: creating %s: %w", path, err)
	}
	defer f.Close()

	hdr := fileHeader{
		PageSize:      c.info.PageSize,
		PagesPerBlock: c.info.PagesPerBlock,
		NumBlocks:     c.info.NumBlocks,
		OOBSize:       c.info.OOBSize,
	}
	if err := binary.Write(f, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("nandsim: writing header of %s: %w", path, err)
	}
	for b := uint32(0); b < c.info.NumBlocks; b++ {
		if _, err := f.Write(c.data[b]); err != nil {
			return fmt.Errorf("nandsim: writing block %d data of %s: %w", b, path, err)
		}
	}
	for p := uint32(0); p < c.info.NumBlocks*c.info.PagesPerBlock; p++ {
		if _, err := f.Write(c.oob[p]); err != nil {
			return fmt.Errorf("nandsim: writing page %d oob of %s: %w", p, path, err)
		}
	}
	return nil
}

type fileHeader struct {
	PageSize      uint32
	PagesPerBlock uint32
	NumBlocks     uint32
	OOBSize       uint32
}
