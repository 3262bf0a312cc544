package badblock

// readRecordPage reads absolute in-block page pageOff, the idx'th page
// (0-based) of its stride window, into the shared scratch buffers.
// idx indexes into dataBuf/oobBuf; pageOff alone addresses the NAND
// page. Returns the decoded OOB header alongside any I/O error.
func (c *Core) readRecordPage(block, pageOff, idx uint32) (OOBHeader, error) {
	nandPage := block*c.info.PagesPerBlock + pageOff
	dataOff := int(idx) * int(c.info.PageSize)
	err := c.adapter.ReadPage(nandPage, c.dataBuf, dataOff, c.oobBuf)
	if err != nil {
		return OOBHeader{}, err
	}
	return UnmarshalOOBHeader(c.oobBuf), nil
}

// writeRecordPage writes absolute in-block page pageOff, the idx'th
// page (0-based) of its stride window, sourcing table bytes from the
// shared data buffer at idx's offset and writing hdr into the OOB area.
func (c *Core) writeRecordPage(block, pageOff, idx uint32, hdr OOBHeader) error {
	nandPage := block*c.info.PagesPerBlock + pageOff
	dataOff := int(idx) * int(c.info.PageSize)
	hdr.Marshal(c.oobBuf)
	return c.adapter.WritePage(nandPage, c.dataBuf, dataOff, c.oobBuf)
}

// stageTable copies t into the shared data buffer ahead of a write.
func (c *Core) stageTable(t Table) {
	for i, v := range t {
		c.dataBuf[i] = byte(v)
	}
}

// loadTable copies the shared data buffer's first len(c.table) bytes
// into c.table, the result of a successful read of a complete record.
func (c *Core) loadTable() {
	for i := range c.table {
		c.table[i] = BlockStatus(c.dataBuf[i])
	}
}
