package domain

import "time"

type MovementType string

const (
	MovementIncoming MovementType = "INCOMING"
	MovementReserved MovementType = "RESERVED"
	MovementReleased MovementType = "RELEASED"
	MovementAdjusted MovementType = "ADJUSTED"
)

// StockMovement is an immutable audit record of one ledger mutation.
// QuantityChange is signed: positive for stock entering the available
// pool (INCOMING, positive ADJUSTED) and for quantities moved by
// RESERVED/RELEASED; the movement type determines which bucket moved.
type StockMovement struct {
	ID             uint
	Ref            LineRef
	MovementType   MovementType
	QuantityChange int
	Reason         string
	CreatedAt      time.Time
}

// Replay folds movements (oldest first) from a zero line and returns
// the resulting available/reserved split. The ordered movement history
// of a line must reproduce its current counters.
func Replay(movements []StockMovement) (available, reserved int) {
	for _, m := range movements {
		switch m.MovementType {
		case MovementIncoming, MovementAdjusted:
			available += m.QuantityChange
		case MovementReserved:
			available -= m.QuantityChange
			reserved += m.QuantityChange
		case MovementReleased:
			reserved -= m.QuantityChange
			if reserved < 0 {
				reserved = 0
			}
			available += m.QuantityChange
		}
	}
	if available < 0 {
		available = 0
	}
	return available, reserved
}
