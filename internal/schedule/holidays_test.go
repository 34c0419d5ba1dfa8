package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNRWHolidays_Fixed(t *testing.T) {
	holidays := NRWHolidays(2025)

	assert.Equal(t, "Neujahr", holidays["2025-01-01"])
	assert.Equal(t, "Tag der Arbeit", holidays["2025-05-01"])
	assert.Equal(t, "Tag der Deutschen Einheit", holidays["2025-10-03"])
	assert.Equal(t, "Allerheiligen", holidays["2025-11-01"])
	assert.Equal(t, "1. Weihnachtstag", holidays["2025-12-25"])
	assert.Equal(t, "2. Weihnachtstag", holidays["2025-12-26"])
}

func TestNRWHolidays_EasterBased(t *testing.T) {
	// Easter Sunday 2025 is April 20.
	holidays := NRWHolidays(2025)

	assert.Equal(t, "Karfreitag", holidays["2025-04-18"])
	assert.Equal(t, "Ostermontag", holidays["2025-04-21"])
	assert.Equal(t, "Christi Himmelfahrt", holidays["2025-05-29"])
	assert.Equal(t, "Pfingstmontag", holidays["2025-06-09"])
	assert.Equal(t, "Fronleichnam", holidays["2025-06-19"])
}

func TestCalculateEaster(t *testing.T) {
	cases := map[int]string{
		2024: "2024-03-31",
		2025: "2025-04-20",
		2026: "2026-04-05",
	}
	for year, want := range cases {
		assert.Equal(t, want, calculateEaster(year).Format(dateLayout), "year %d", year)
	}
}

func TestHolidaySet_MergesYears(t *testing.T) {
	set := HolidaySet(2024, 2025)

	_, ok := set["2024-12-25"]
	assert.True(t, ok)
	_, ok = set["2025-01-01"]
	assert.True(t, ok)
	_, ok = set["2026-01-01"]
	assert.False(t, ok)
}
