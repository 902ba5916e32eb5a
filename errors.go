package nc4

import "errors"

// Sentinel errors for the FileWriter state machine (spec.md §7): every
// operation belongs to exactly one of the three phases (defining,
// writing, closed), and calling it out of phase is always a caller bug,
// never a recoverable condition.
var (
	ErrNotDefining  = errors.New("nc4: operation only valid before EndDefine")
	ErrNotWriting   = errors.New("nc4: operation only valid after EndDefine and before Close")
	ErrClosed       = errors.New("nc4: file is closed")
	ErrAlreadyEnded = errors.New("nc4: EndDefine already called")
)
