package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotNotFound means the targeted id is not in the slot index.
	ErrSlotNotFound = errors.New("no such slot")
	// ErrWrongKind means the slot exists but its current kind does not
	// permit the requested operation.
	ErrWrongKind = errors.New("slot does not permit the operation")
)

// IntegrityError rejects a mutation whose produced page text does not
// reflect the intended change. The produced text is discarded and the prior
// document stays committed, so a tripped guard is recoverable by retrying.
type IntegrityError struct {
	Op     string
	SlotID string
	Before int // media elements before the mutation
	After  int // media elements in the produced text
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s of slot %q discarded: %s (media count %d -> %d)",
		e.Op, e.SlotID, e.Reason, e.Before, e.After)
}
