package badblock

import "fmt"

// discover runs lazily on first use, and again on a later call if a
// previous run failed. It scans the reserved region for the freshest
// readable BBT copy, loads it into memory, and arranges for the writer
// to relocate off any block whose latest record looks torn. Callers
// must hold mu.
func (c *Core) discover() error {
	// A retried discovery starts from an empty reserved region, so no
	// block is listed twice.
	c.region.entries = c.region.entries[:0]
	c.host = nil

	hostBlock, haveHost, err := c.locateCandidates()
	if err != nil {
		return err
	}
	if !haveHost {
		// No candidate carries valid magic: on a virgin device every
		// reserved block is readable but none has ever been written,
		// which is indistinguishable here from genuine corruption.
		// Table stays all-Good; host election is deferred to the
		// first successful write, which writes generation 0's
		// successor (i.e. generation 1).
		c.virgin = true
		c.gen = 1
		return fmt.Errorf("%w: no candidate block carries valid bbt magic", ErrInternal)
	}

	c.host = c.region.entryForBlock(hostBlock)
	host := c.host

	winPage, nextGen, latestEntryBad, err := c.scanHost(host.Block)
	if err != nil {
		return err
	}

	// Re-read the winning window to load T; a read or magic failure
	// here means the on-flash copy is corrupt.
	for i := uint32(0); i < c.stride; i++ {
		hdr, err := c.readRecordPage(host.Block, winPage+i, i)
		if err != nil {
			return fmt.Errorf("badblock: reloading latest bbt record: %w", err)
		}
		if hdr.Magic != Magic {
			return fmt.Errorf("%w: latest bbt record lost its magic on reload", ErrInternal)
		}
	}
	c.loadTable()

	c.page = winPage
	c.gen = nextGen

	if latestEntryBad {
		c.log.Info("badblock: latest bbt entry is torn, relocating", "block", host.Block, "page", winPage)
		if err := c.writeBBT(true); err != nil {
			return fmt.Errorf("%w: forced relocation during discovery failed: %v", ErrNotSupported, err)
		}
	} else {
		c.page = winPage + c.stride
	}

	c.found = true
	return nil
}

// locateCandidates probes each reserved block for a readable page,
// populating the reserved region, and in the same pass picks the
// freshest (maximum-generation, correct-magic) candidate as the host.
// Blocks that fail all attempts are silently omitted (not marked bad):
// a block that's merely untrustworthy during discovery may still be
// erasable later, so writing it off permanently here would be premature.
func (c *Core) locateCandidates() (hostBlock uint32, haveHost bool, err error) {
	if c.cfg.TableEndBlock < c.cfg.TableStartBlock {
		return 0, false, fmt.Errorf("%w: reserved range misconfigured", ErrInternal)
	}

	var bestGen uint16

	for block := c.cfg.TableStartBlock; block <= c.cfg.TableEndBlock; block++ {
		var hdr OOBHeader
		var readErr error
		for i := 0; i < DiscoveryReadAttempts; i++ {
			pageOff := uint32(i) * c.stride
			hdr, readErr = c.readRecordPage(block, pageOff, 0)
			if readErr == nil {
				break
			}
		}
		if readErr != nil {
			c.log.Debug("badblock: reserved block untrustworthy during discovery", "block", block)
			continue
		}
		c.region.add(ReservedEntry{Block: block, PECycles: hdr.PECycles, Valid: true})

		if hdr.Magic == Magic && (!haveHost || hdr.Generation >= bestGen) {
			haveHost = true
			bestGen = hdr.Generation
			hostBlock = block
		}
	}

	return hostBlock, haveHost, nil
}

// scanHost walks host page by page in stride windows, returning the
// offset of the latest complete window, the generation the next write
// should carry, and whether the most recently scanned window was
// incomplete (the torn-write signal).
func (c *Core) scanHost(block uint32) (winPage uint32, nextGen uint16, latestEntryBad bool, err error) {
	var foundOne bool
	page := uint32(0)
	for page+c.stride <= c.info.PagesPerBlock {
		var lastErr error
		var lastHdr OOBHeader
		complete := true
		blankStart := false
		for i := uint32(0); i < c.stride; i++ {
			lastHdr, lastErr = c.readRecordPage(block, page+i, i)
			if lastErr != nil || lastHdr.Magic != Magic {
				complete = false
				blankStart = i == 0 && lastErr == nil
				break
			}
		}
		if blankStart {
			// First page readable but no magic: the virgin tail of the block.
			break
		}
		if !complete {
			// An unreadable page, or a window missing magic after its
			// first page, is incomplete. It's fine for entries to be
			// incomplete as long as a later one is complete; keep scanning.
			latestEntryBad = true
			page += c.stride
			continue
		}
		latestEntryBad = false
		foundOne = true
		winPage = page
		nextGen = lastHdr.Generation + 1
		page += c.stride
	}
	if !foundOne {
		return 0, 0, false, fmt.Errorf("%w: no complete bbt record found in host block %d", ErrNotFound, block)
	}
	return winPage, nextGen, latestEntryBad, nil
}
