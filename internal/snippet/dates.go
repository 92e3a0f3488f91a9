package snippet

import (
	"math"
	"time"
)

// RelativeDate labels t relative to now by calendar day in now's location:
// today, yesterday, days (<7), weeks (<30), months of 30 days (<365), years.
func RelativeDate(t, now time.Time, lang Language) string {
	tr := T(lang).Snippet
	loc := now.Location()
	t = t.In(loc)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	days := int(math.Round(today.Sub(day).Hours() / 24))

	switch {
	case days <= 0:
		return tr.Today
	case days == 1:
		return tr.Yesterday
	case days < 7:
		return Fill(tr.DaysAgo, days)
	case days < 30:
		return Fill(tr.WeeksAgo, days/7)
	case days < 365:
		return Fill(tr.MonthsAgo, days/30)
	default:
		return Fill(tr.YearsAgo, days/365)
	}
}
