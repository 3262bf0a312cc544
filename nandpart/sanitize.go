package nandpart

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/amlogic/aml-badblock/nand"
)

// AlignPartitions is a supplementary, self-contained helper modeled on
// nandpart.cpp's SanitizePartitionMap: it sorts by FirstBlock, rejects
// overlaps, and verifies the map fits on the device. Partitions are
// given in whole blocks, so no separate erase-block alignment check is
// made. The real sanitization pass is
// an external collaborator per this package's scope; this exists so
// tests and cmd/badblockctl can build a valid Partition slice without
// a hand-authored fixture, not as a production validation gate.
func AlignPartitions(parts []Partition, info nand.Info) ([]Partition, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("nandpart: partition count is zero")
	}

	sorted := make([]Partition, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].FirstBlock < sorted[j].FirstBlock
	})

	for i := 0; i+1 < len(sorted); i++ {
		if sorted[i].LastBlock >= sorted[i+1].FirstBlock {
			return nil, fmt.Errorf("nandpart: partition %q overlaps %q", sorted[i].Name, sorted[i+1].Name)
		}
	}

	if sorted[len(sorted)-1].LastBlock >= info.NumBlocks {
		return nil, fmt.Errorf("nandpart: partition %q extends past device (%d blocks)",
			sorted[len(sorted)-1].Name, info.NumBlocks)
	}

	return sorted, nil
}

// ParseGUID decodes a 32-character hex string into a GUID.
func ParseGUID(s string) (GUID, error) {
	var g GUID
	b, err := hex.DecodeString(s)
	if err != nil {
		return g, fmt.Errorf("nandpart: invalid guid %q: %w", s, err)
	}
	if len(b) != len(g) {
		return g, fmt.Errorf("nandpart: guid %q must be %d bytes, got %d", s, len(g), len(b))
	}
	copy(g[:], b)
	return g, nil
}
