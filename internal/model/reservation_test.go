package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	t.Run("reserved may move to paid or cancelled", func(t *testing.T) {
		assert.True(t, CanTransition(StatusReserved, StatusPaid))
		assert.True(t, CanTransition(StatusReserved, StatusCancelled))
	})

	t.Run("terminal states admit no transition", func(t *testing.T) {
		for _, from := range []ReservationStatus{StatusPaid, StatusCancelled} {
			for _, to := range []ReservationStatus{StatusReserved, StatusPaid, StatusCancelled} {
				assert.False(t, CanTransition(from, to), "%s -> %s must be rejected", from, to)
			}
		}
	})

	t.Run("self transition is rejected", func(t *testing.T) {
		assert.False(t, CanTransition(StatusReserved, StatusReserved))
	})
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusReserved.Terminal())
	assert.True(t, StatusPaid.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestParseFareClass(t *testing.T) {
	for in, want := range map[string]FareClass{
		"economy":  Economy,
		"BUSINESS": Business,
		" First ":  First,
	} {
		got, ok := ParseFareClass(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseFareClass("premium")
	assert.False(t, ok)
}

func TestSeatsSold(t *testing.T) {
	assert.Equal(t, uint32(50), Cabin{SeatsTotal: 100, SeatsAvailable: 50}.SeatsSold())
	assert.Equal(t, uint32(0), Cabin{SeatsTotal: 0, SeatsAvailable: 0}.SeatsSold())
	// defensive: available above total never yields a negative sold count
	assert.Equal(t, uint32(0), Cabin{SeatsTotal: 10, SeatsAvailable: 12}.SeatsSold())
}
