package slots

import (
	"errors"
	"fmt"
)

// ErrNoEmptySlots means every slot on the page already holds media.
var ErrNoEmptySlots = errors.New("no empty slots left")

// FillMode selects the sequencing rule for new media.
type FillMode int

const (
	// ModeSequential permits exactly one slot at a time: the empty slot
	// with the smallest order. This is the default.
	ModeSequential FillMode = iota
	// ModeFree permits any empty slot.
	ModeFree
)

func (m FillMode) String() string {
	if m == ModeFree {
		return "free"
	}
	return "sequential"
}

// ParseFillMode maps a configuration value to a FillMode.
func ParseFillMode(raw string) (FillMode, error) {
	switch raw {
	case "", "sequential":
		return ModeSequential, nil
	case "free":
		return ModeFree, nil
	default:
		return ModeSequential, fmt.Errorf("unknown fill mode %q", raw)
	}
}

// SequencingError rejects a drop aimed at a slot other than the one the
// policy currently permits. It carries the eligible slot so the caller can
// point the user at it.
type SequencingError struct {
	TargetID    string
	EligibleID  string
	EligiblePos int // 1-based position of the eligible slot
}

func (e *SequencingError) Error() string {
	return fmt.Sprintf("slot %q is not fillable yet, fill placeholder #%d (%s) first",
		e.TargetID, e.EligiblePos, e.EligibleID)
}

// Eligible returns the slots a drop may currently target. The result is a
// pure function of the index: it is recomputed on every resolution attempt
// and never cached, so the policy self-heals when slots get filled through
// another path.
func Eligible(ix *Index, mode FillMode) []*Slot {
	empty := ix.Empty()
	if mode == ModeFree || len(empty) == 0 {
		return empty
	}
	return empty[:1]
}

// CheckTarget validates a resolved drop target against the policy. A nil
// return means the target may be filled.
func CheckTarget(ix *Index, mode FillMode, targetID string) error {
	if mode == ModeFree {
		return nil
	}
	eligible := Eligible(ix, mode)
	if len(eligible) == 0 {
		return ErrNoEmptySlots
	}
	next := eligible[0]
	if next.ID == targetID {
		return nil
	}
	return &SequencingError{TargetID: targetID, EligibleID: next.ID, EligiblePos: next.Order}
}

// Redirect picks the slot for a drop with no specific target, e.g. a
// programmatic insert: the single eligible slot in sequential mode, the first
// empty slot in free mode.
func Redirect(ix *Index, mode FillMode) (*Slot, error) {
	eligible := Eligible(ix, mode)
	if len(eligible) == 0 {
		return nil, ErrNoEmptySlots
	}
	return eligible[0], nil
}
