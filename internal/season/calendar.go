package season

import "time"

// Boundaries returns the first day of the season span containing ref and the
// last calendar day of that span, both at midnight in ref's location.
//
// The span is the contiguous run of months around ref that classify as s.
// When that run is exactly the declared range of a primary season, the
// declared range is used: for a range that wraps the year end, a reference
// month before StartMonth puts the start in the previous year, otherwise the
// end moves to the next year.
func Boundaries(s Season, cfg RegionConfig, ref time.Time) (start, end time.Time) {
	start, end = runBoundaries(s, cfg, ref)
	if s == Transition {
		return start, end
	}

	declared := cfg.Range(s)
	if sameMonths(declared.Months(), monthsOfSpan(start, end)) {
		return rangeBoundaries(declared, ref)
	}
	return start, end
}

func rangeBoundaries(r MonthRange, ref time.Time) (time.Time, time.Time) {
	year, month := ref.Year(), int(ref.Month())
	startYear, endYear := year, year

	if r.Wraps() {
		if month < r.StartMonth {
			startYear = year - 1
		} else {
			endYear = year + 1
		}
	}

	loc := ref.Location()
	start := time.Date(startYear, time.Month(r.StartMonth), 1, 0, 0, 0, 0, loc)
	// Day 0 of the following month is the last day of EndMonth.
	end := time.Date(endYear, time.Month(r.EndMonth)+1, 0, 0, 0, 0, 0, loc)
	return start, end
}

// runBoundaries walks outwards from ref's month while months classify as s.
func runBoundaries(s Season, cfg RegionConfig, ref time.Time) (time.Time, time.Time) {
	year, month := ref.Year(), int(ref.Month())
	loc := ref.Location()

	startMonth, startYear := month, year
	endMonth, endYear := month, year

	// Bounded so that a single-season region spans exactly twelve months.
	for i := 0; i < 11; i++ {
		p := prevMonth(startMonth)
		if cfg.ClassifyMonth(p) != s {
			break
		}
		if p == 12 {
			startYear--
		}
		startMonth = p
	}
	for i := 0; i < 11-monthsBetween(startMonth, month); i++ {
		n := nextMonth(endMonth)
		if cfg.ClassifyMonth(n) != s {
			break
		}
		if n == 1 {
			endYear++
		}
		endMonth = n
	}

	start := time.Date(startYear, time.Month(startMonth), 1, 0, 0, 0, 0, loc)
	end := time.Date(endYear, time.Month(endMonth)+1, 0, 0, 0, 0, 0, loc)
	return start, end
}

func monthsOfSpan(start, end time.Time) []int {
	var months []int
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, int(m.Month()))
	}
	return months
}

func sameMonths(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[int]bool, len(a))
	for _, m := range a {
		set[m] = true
	}
	for _, m := range b {
		if !set[m] {
			return false
		}
	}
	return true
}

// monthsBetween counts forward steps from a to b on the month cycle.
func monthsBetween(a, b int) int {
	return (b - a + 12) % 12
}

// nextChange finds the first day of the next season after ref.
//
// From dry the calendar is scanned forward to the first rainy month, and from
// rainy to the first dry month, so transition months in between are skipped.
// From a transition month the scan stops at the first month classified as
// something else. When no such month exists the scan settles for any other
// season; a region that never leaves the current season yields an unresolved
// change and ErrNoSeasonChange.
func nextChange(current Season, cfg RegionConfig, ref time.Time) (Change, error) {
	month := int(ref.Month())

	want := func(s Season) bool { return s != current }
	switch current {
	case Dry:
		want = func(s Season) bool { return s == Rainy }
	case Rainy:
		want = func(s Season) bool { return s == Dry }
	}

	target, offset := scanForward(cfg, month, want)
	if offset == 0 && current != Transition {
		target, offset = scanForward(cfg, month, func(s Season) bool { return s != current })
	}
	if offset == 0 {
		return Change{Season: current}, ErrNoSeasonChange
	}

	total := month - 1 + offset
	date := time.Date(ref.Year()+total/12, time.Month(total%12+1), 1, 0, 0, 0, 0, ref.Location())

	return Change{
		Season:    target,
		Date:      date,
		DaysUntil: daysBetween(ref, date),
		Resolved:  true,
	}, nil
}

// scanForward returns the first month after month whose season satisfies
// want, as a season and a forward offset of 1-12. The offset is 0 when no
// month matches.
func scanForward(cfg RegionConfig, month int, want func(Season) bool) (Season, int) {
	for step := 1; step <= 12; step++ {
		m := (month-1+step)%12 + 1
		if s := cfg.ClassifyMonth(m); want(s) {
			return s, step
		}
	}
	return "", 0
}

// daysBetween returns the whole calendar days from a to b. Because b is a
// midnight, this equals the ceiling of the elapsed time in days, and it stays
// exact across DST shifts.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
