package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKey(t *testing.T) {
	d := time.Date(2025, time.August, 24, 15, 30, 0, 0, time.Local)
	assert.Equal(t, "2025-08-24", DayKey(d))
}

func TestWeekKeySharedAcrossWeek(t *testing.T) {
	wednesday := time.Date(2025, time.August, 27, 9, 0, 0, 0, time.Local)
	want := WeekKey(wednesday)
	assert.Equal(t, "W-2025-08-24", want)

	sunday := time.Date(2025, time.August, 24, 0, 0, 0, 0, time.Local)
	for i := 0; i < 7; i++ {
		day := AddDays(sunday, i).Add(23 * time.Hour)
		assert.Equal(t, want, WeekKey(day), "day %s", DayKey(day))
	}
	assert.NotEqual(t, want, WeekKey(AddDays(sunday, 7)))
	assert.NotEqual(t, want, WeekKey(AddDays(sunday, -1)))
}

func TestMonthAndCacheKeys(t *testing.T) {
	d := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "2024-02", MonthKey(d))
	assert.Equal(t, "2024-02_chapterA", CacheKey(MonthKey(d), "chapterA"))
	assert.Equal(t, "2025-03-10_chapterA", CacheKey(DayKey(time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)), "chapterA"))
	assert.Equal(t, "doc_abc", DocumentKey("abc"))
}

func TestOfDay(t *testing.T) {
	w := Of(Day, time.Date(2025, 3, 10, 18, 0, 0, 0, time.Local))
	assert.Equal(t, "2025-03-10", w.Key())
	assert.True(t, w.Contains(time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)))
	assert.False(t, w.Contains(time.Date(2025, 3, 11, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, "2025-03-11", w.Next(1).Key())
	assert.Equal(t, "2025-03-09", w.Next(-1).Key())
}

func TestOfWeek(t *testing.T) {
	w := Of(Week, time.Date(2025, 3, 12, 0, 0, 0, 0, time.Local))
	require.Len(t, w.Days(), 7)
	assert.Equal(t, time.Sunday, w.Start.Weekday())
	assert.Equal(t, "W-2025-03-09", w.Key())
	assert.Equal(t, "W-2025-03-16", w.Next(1).Key())
}

func TestOfMonthGrid(t *testing.T) {
	// March 2025 starts on a Saturday: 6 leading days, 31 days, 5 trailing.
	w := Of(Month, time.Date(2025, 3, 17, 0, 0, 0, 0, time.Local))
	assert.Equal(t, "2025-03", w.Key())
	days := w.Days()
	require.Len(t, days, 42)
	assert.Equal(t, "2025-02-23", DayKey(days[0]))
	assert.Equal(t, "2025-04-05", DayKey(days[len(days)-1]))
	assert.False(t, w.InAnchorMonth(days[0]))
	assert.True(t, w.InAnchorMonth(days[6]))
	assert.Equal(t, "2025-04", w.Next(1).Key())
	assert.Equal(t, "2024-12", w.Next(-3).Key())
}

func TestOfMonthExactFit(t *testing.T) {
	// February 2015 starts on Sunday and has 28 days: a four row grid.
	w := Of(Month, time.Date(2015, 2, 1, 0, 0, 0, 0, time.Local))
	assert.Len(t, w.Days(), 28)
}

func TestParse(t *testing.T) {
	d, err := ParseDay("2025-03-10", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", DayKey(d))

	m, err := ParseMonth("2025-03", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2025-03", MonthKey(m))

	_, err = ParseDay("03/10/2025", time.UTC)
	assert.Error(t, err)

	k, err := ParseKind("week")
	require.NoError(t, err)
	assert.Equal(t, Week, k)
	_, err = ParseKind("year")
	assert.Error(t, err)
}
