package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlapsIsSymmetric(t *testing.T) {
	ranges := [][2]string{
		{"2025-05-01", "2025-05-05"},
		{"2025-04-28", "2025-05-01"},
		{"2025-05-03", "2025-05-04"},
		{"2025-05-04", "2025-05-10"},
		{"2025-05-05", "2025-05-06"},
		{"2025-04-01", "2025-06-01"},
	}
	for _, a := range ranges {
		for _, b := range ranges {
			assert.Equal(t,
				Overlaps(day(a[0]), day(a[1]), day(b[0]), day(b[1])),
				Overlaps(day(b[0]), day(b[1]), day(a[0]), day(a[1])),
				"%v vs %v", a, b)
		}
	}
}

func TestTouchingStaysDoNotOverlap(t *testing.T) {
	assert.False(t, Overlaps(day("2025-05-01"), day("2025-05-05"), day("2025-05-05"), day("2025-05-08")))
	assert.False(t, Overlaps(day("2025-05-05"), day("2025-05-08"), day("2025-05-01"), day("2025-05-05")))
}

func TestOverlaps(t *testing.T) {
	existing := [2]time.Time{day("2025-05-01"), day("2025-05-05")}
	cases := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"contained", "2025-05-02", "2025-05-04", true},
		{"covering", "2025-04-30", "2025-05-06", true},
		{"straddles start", "2025-04-28", "2025-05-02", true},
		{"straddles end", "2025-05-04", "2025-05-07", true},
		{"identical", "2025-05-01", "2025-05-05", true},
		{"ends at start", "2025-04-28", "2025-05-01", false},
		{"starts at end", "2025-05-05", "2025-05-07", false},
		{"far after", "2025-06-01", "2025-06-03", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(existing[0], existing[1], day(tc.start), day(tc.end)))
		})
	}
}
