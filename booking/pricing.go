package booking

import "math"

const DefaultExcessGuestFee = 100.0

// Pricing computes stay totals. The zero value charges DefaultExcessGuestFee.
type Pricing struct {
	ExcessGuestFee float64
}

func (p Pricing) fee() float64 {
	if p.ExcessGuestFee > 0 {
		return p.ExcessGuestFee
	}
	return DefaultExcessGuestFee
}

// ComputeTotal returns rate*nights plus the flat fee for every guest above maxGuests.
func (p Pricing) ComputeTotal(nightlyRate float64, nights, maxGuests, adults, children int) (float64, error) {
	switch {
	case nights < 1:
		return 0, invalid("checkOut", "must be at least one night after checkIn")
	case nightlyRate < 0 || math.IsNaN(nightlyRate) || math.IsInf(nightlyRate, 0):
		return 0, invalid("price", "must be a non-negative amount")
	case maxGuests < 1:
		return 0, invalid("maxGuests", "must be at least 1")
	case adults < 1:
		return 0, invalid("adults", "must be at least 1")
	case children < 0:
		return 0, invalid("children", "cannot be negative")
	}

	base := nightlyRate * float64(nights)
	var excess float64
	if over := adults + children - maxGuests; over > 0 {
		excess = p.fee() * float64(over)
	}
	return roundCents(base + excess), nil
}

// ExcessGuests is the number of guests above the room maximum.
func ExcessGuests(maxGuests, adults, children int) int {
	if over := adults + children - maxGuests; over > 0 {
		return over
	}
	return 0
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
