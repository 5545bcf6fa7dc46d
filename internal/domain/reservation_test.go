package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservation_Expired(t *testing.T) {
	now := time.Now().UTC()

	res := Reservation{ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, res.Expired(now))

	res.ExpiresAt = now.Add(time.Minute)
	assert.False(t, res.Expired(now))
}

func TestIsValidSource(t *testing.T) {
	assert.True(t, IsValidSource(SourceCart))
	assert.True(t, IsValidSource(SourceCheckout))
	assert.True(t, IsValidSource(SourceOrder))
	assert.True(t, IsValidSource(SourceAdmin))
	assert.False(t, IsValidSource(ReservationSource("warehouse")))
	assert.False(t, IsValidSource(ReservationSource("")))
}

func TestProduct_IsSellable(t *testing.T) {
	assert.True(t, Product{Status: ProductStatusActive}.IsSellable())
	assert.False(t, Product{Status: ProductStatusInactive}.IsSellable())
	assert.False(t, Product{Status: ProductStatusDiscontinued}.IsSellable())
}
