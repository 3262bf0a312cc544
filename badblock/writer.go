package badblock

// writeBBT appends a new BBT record, self-healing around write and
// erase failures. useNewBlock forces relocation even if the current
// host still has room. Callers must hold mu. If no host is known yet
// (a virgin device), a host is elected before the first write.
func (c *Core) writeBBT(useNewBlock bool) error {
	for {
		needNewHost := useNewBlock ||
			c.host == nil ||
			c.table[c.host.Block] != Good ||
			c.page+c.stride > c.info.PagesPerBlock

		if needNewHost {
			if err := c.relocate(); err != nil {
				return err
			}
			useNewBlock = false
		}

		c.stageTable(c.table)
		hdr := OOBHeader{Magic: Magic, PECycles: c.host.PECycles, Generation: c.gen}

		failed := false
		for i := uint32(0); i < c.stride; i++ {
			if err := c.writeRecordPage(c.host.Block, c.page+i, i, hdr); err != nil {
				c.log.Info("badblock: bbt write failed, marking block bad and relocating",
					"block", c.host.Block, "page", c.page+i, "err", err)
				c.table[c.host.Block] = Bad
				failed = true
				break
			}
		}
		if failed {
			useNewBlock = true
			continue
		}

		c.page += c.stride
		c.gen++
		return nil
	}
}

// relocate picks a new host via least-PE-cycles selection, erases it,
// and resets the page cursor. A failed erase marks the candidate block
// bad and tries again; this loop is bounded in practice by the number
// of remaining reserved blocks.
func (c *Core) relocate() error {
	for {
		host, err := c.region.selectHost(c.host)
		if err != nil {
			return err
		}

		// The newly-selected host might itself have since been marked
		// bad in T (e.g. by a prior failed write to it); skip it
		// without spending an erase on it. Grounded on aml-bad-block.cpp's
		// GetNewBlock, which re-checks table_[block] before erasing.
		if c.table[host.Block] != Good {
			host.Valid = false
			continue
		}

		if err := c.adapter.Erase(host.Block); err != nil {
			c.log.Info("badblock: failed to erase candidate host, marking bad", "block", host.Block, "err", err)
			c.table[host.Block] = Bad
			host.Valid = false
			continue
		}

		c.log.Info("badblock: moving bbt to new host block", "block", host.Block)
		host.PECycles++
		c.host = host
		c.page = 0
		return nil
	}
}
