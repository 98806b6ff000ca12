package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/flight-seat-reservation/internal/model"
)

func TestQuoteCents(t *testing.T) {
	t.Run("half sold cabin adds five percent", func(t *testing.T) {
		c := model.Cabin{BasePriceCents: 10000, SeatsTotal: 100, SeatsAvailable: 50}
		// 10000 * ((100-50)/50 * 0.05 + 1) = 10500
		assert.Equal(t, uint32(10500), QuoteCents(c))
	})

	t.Run("empty cabin quotes base price", func(t *testing.T) {
		c := model.Cabin{BasePriceCents: 12345, SeatsTotal: 80, SeatsAvailable: 80}
		assert.Equal(t, uint32(12345), QuoteCents(c))
	})

	t.Run("sold out cabin uses maximal surge", func(t *testing.T) {
		c := model.Cabin{BasePriceCents: 10000, SeatsTotal: 100, SeatsAvailable: 0}
		// 10000 * (100 * 0.05 + 1) = 60000
		assert.Equal(t, uint32(60000), QuoteCents(c))
	})

	t.Run("one seat left", func(t *testing.T) {
		c := model.Cabin{BasePriceCents: 1000, SeatsTotal: 2, SeatsAvailable: 1}
		// 1000 * (1/1 * 0.05 + 1) = 1050
		assert.Equal(t, uint32(1050), QuoteCents(c))
	})

	t.Run("zero total seats treated as zero sold", func(t *testing.T) {
		c := model.Cabin{BasePriceCents: 9999, SeatsTotal: 0, SeatsAvailable: 0}
		// sold-out branch with total 0: multiplier 1
		assert.Equal(t, uint32(9999), QuoteCents(c))
	})

	t.Run("ties round half away from zero", func(t *testing.T) {
		// sold/available = 1/100 -> multiplier 1.0005 -> 1000.5 cents
		c := model.Cabin{BasePriceCents: 1000, SeatsTotal: 101, SeatsAvailable: 100}
		assert.Equal(t, uint32(1001), QuoteCents(c))
	})

	t.Run("price rises monotonically as seats sell", func(t *testing.T) {
		prev := uint32(0)
		for avail := uint32(10); avail >= 1; avail-- {
			q := QuoteCents(model.Cabin{BasePriceCents: 20000, SeatsTotal: 10, SeatsAvailable: avail})
			assert.GreaterOrEqual(t, q, prev, "quote must not drop as availability falls")
			prev = q
		}
		soldOut := QuoteCents(model.Cabin{BasePriceCents: 20000, SeatsTotal: 10, SeatsAvailable: 0})
		assert.GreaterOrEqual(t, soldOut, prev)
	})
}

func TestQuotes(t *testing.T) {
	f := &model.Flight{Cabins: map[model.FareClass]model.Cabin{
		model.Economy:  {BasePriceCents: 10000, SeatsTotal: 100, SeatsAvailable: 50},
		model.Business: {BasePriceCents: 30000, SeatsTotal: 20, SeatsAvailable: 20},
		model.First:    {BasePriceCents: 80000, SeatsTotal: 4, SeatsAvailable: 0},
	}}
	q := Quotes(f)
	assert.Equal(t, uint32(10500), q[model.Economy])
	assert.Equal(t, uint32(30000), q[model.Business])
	assert.Equal(t, uint32(96000), q[model.First])
}
