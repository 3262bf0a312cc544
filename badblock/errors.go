package badblock

import "errors"

// Sentinel errors surfaced at the API boundary. Wrap with fmt.Errorf
// and %w when adding context; callers match with errors.Is.
var (
	ErrOutOfRange   = errors.New("badblock: block argument exceeds table")
	ErrInvalidArgs  = errors.New("badblock: invalid range or arguments")
	ErrNoMemory     = errors.New("badblock: allocation failure")
	ErrNotFound     = errors.New("badblock: no valid bad block table copy, or no reserved block free")
	ErrNotSupported = errors.New("badblock: operation not supported")
	ErrInternal     = errors.New("badblock: reserved region misconfigured or no valid bbt magic")
)
