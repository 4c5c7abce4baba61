package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    Clock
		wantErr bool
	}{
		{"08:00", Clock{8, 0}, false},
		{"23:59", Clock{23, 59}, false},
		{"0:05", Clock{0, 5}, false},
		{" 13:30 ", Clock{13, 30}, false},
		{"24:00", Clock{}, true},
		{"12:60", Clock{}, true},
		{"12", Clock{}, true},
		{"ab:cd", Clock{}, true},
		{"", Clock{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClock_SubMinutes(t *testing.T) {
	c, ok := Clock{8, 0}.SubMinutes(5)
	require.True(t, ok)
	assert.Equal(t, Clock{7, 55}, c)

	c, ok = Clock{0, 5}.SubMinutes(5)
	require.True(t, ok)
	assert.Equal(t, Clock{0, 0}, c)

	// crossing midnight is refused, alerts never leak into the previous day
	_, ok = Clock{0, 4}.SubMinutes(5)
	assert.False(t, ok)

	_, ok = Clock{0, 0}.SubMinutes(1)
	assert.False(t, ok)
}

func TestClock_String(t *testing.T) {
	assert.Equal(t, "07:05", Clock{7, 5}.String())
}

func TestWeekdayNameID(t *testing.T) {
	// 2024-01-01 is a Monday.
	monday := Date(2024, 1, 1)
	assert.Equal(t, "senin", WeekdayNameID(monday))
	assert.Equal(t, "selasa", WeekdayNameID(monday.AddDate(0, 0, 1)))
	assert.Equal(t, "minggu", WeekdayNameID(monday.AddDate(0, 0, 6)))
}

func TestWeekdayNameID_TimezoneBoundary(t *testing.T) {
	// 23:00 UTC Monday is already Tuesday 06:00 in WIB.
	utcMonday := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "selasa", WeekdayNameID(utcMonday))
}

func TestIsSameDay(t *testing.T) {
	a := DateTime(2024, 3, 10, 23, 59, 0)
	b := DateTime(2024, 3, 10, 0, 1, 0)
	c := DateTime(2024, 3, 11, 0, 1, 0)

	assert.True(t, IsSameDay(a, b))
	assert.False(t, IsSameDay(a, c))
}

func TestClock_On(t *testing.T) {
	day := Date(2024, 5, 20)
	at := Clock{7, 55}.On(day)
	assert.Equal(t, 7, at.Hour())
	assert.Equal(t, 55, at.Minute())
	assert.Equal(t, WIB, at.Location())
}
