// Package pricing computes demand-sensitive fare quotes from a cabin's seat
// counters.  Quotes are derived fresh on every read and are never cached or
// persisted; the only place a computed price survives is the locked-in
// price_cents on a ticket at the moment it is created.
package pricing

import (
	"math"

	"github.com/iliyamo/flight-seat-reservation/internal/model"
)

// SurgeFactor scales the demand multiplier.  With the default 0.05 a cabin
// that is half sold quotes 5% above base, and a sold-out 100-seat cabin
// quotes six times base.
const SurgeFactor = 0.05

// QuoteCents returns the current price in cents for one seat of the given
// cabin.
//
// The multiplier is (sold/available)*SurgeFactor + 1 while at least one seat
// remains.  When the cabin is sold out the division is undefined, so the
// maximal surge seatsTotal*SurgeFactor + 1 is used instead.  A cabin with
// zero total seats quotes base price (sold count treated as zero).
//
// Rounding is half away from zero (math.Round); prices are positive, so this
// behaves as round-half-up.
func QuoteCents(c model.Cabin) uint32 {
	var multiplier float64
	if c.SeatsAvailable >= 1 {
		multiplier = float64(c.SeatsSold())/float64(c.SeatsAvailable)*SurgeFactor + 1
	} else {
		multiplier = float64(c.SeatsTotal)*SurgeFactor + 1
	}
	return uint32(math.Round(float64(c.BasePriceCents) * multiplier))
}

// Quotes returns the current per-class quote for every cabin of a flight,
// keyed by fare class.
func Quotes(f *model.Flight) map[model.FareClass]uint32 {
	out := make(map[model.FareClass]uint32, len(f.Cabins))
	for class, cabin := range f.Cabins {
		out[class] = QuoteCents(cabin)
	}
	return out
}
