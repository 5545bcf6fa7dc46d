package domain

import "time"

type ReservationSource string

const (
	SourceCart     ReservationSource = "cart"
	SourceCheckout ReservationSource = "checkout"
	SourceOrder    ReservationSource = "order"
	SourceAdmin    ReservationSource = "admin"
)

func IsValidSource(s ReservationSource) bool {
	switch s {
	case SourceCart, SourceCheckout, SourceOrder, SourceAdmin:
		return true
	}
	return false
}

// Reservation is a time-boxed hold against one stock line. While
// IsActive its quantity is counted in the line's QuantityReserved.
type Reservation struct {
	ID            uint
	ReservationID string
	Ref           LineRef
	Quantity      int
	UserID        string
	Source        ReservationSource
	IsActive      bool
	ReservedAt    time.Time
	ExpiresAt     time.Time
}

func (r Reservation) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}
