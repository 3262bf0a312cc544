package badblock

import "fmt"

// IsBad reports whether block is anything other than Good.
func (c *Core) IsBad(block uint32) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureDiscovered(); err != nil {
		return false, err
	}
	if block >= uint32(len(c.table)) {
		return false, fmt.Errorf("%w: block %d", ErrOutOfRange, block)
	}
	return c.table[block] != Good, nil
}

// ListBad returns the (newly allocated) sorted list of block numbers
// in the half-open range [first, last) whose status is not Good.
func (c *Core) ListBad(first, last uint32) ([]uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureDiscovered(); err != nil {
		return nil, err
	}
	if first >= uint32(len(c.table)) || last > uint32(len(c.table)) || first > last {
		return nil, fmt.Errorf("%w: range [%d, %d)", ErrInvalidArgs, first, last)
	}

	var bad []uint32
	for b := first; b < last; b++ {
		if c.table[b] != Good {
			bad = append(bad, b)
		}
	}
	return bad, nil
}

// MarkBad marks block as Bad and persists the change. A no-op if the
// block is already non-Good.
func (c *Core) MarkBad(block uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureDiscovered(); err != nil {
		// A virgin device has no bbt yet; bootstrap one on this first
		// write instead of surfacing the error, per spec.
		if !c.virgin {
			return err
		}
	}
	if block >= uint32(len(c.table)) {
		return fmt.Errorf("%w: block %d", ErrOutOfRange, block)
	}
	if c.table[block] != Good {
		return nil
	}
	c.table[block] = Bad
	if err := c.writeBBT(false); err != nil {
		return err
	}
	c.found = true
	c.virgin = false
	return nil
}
