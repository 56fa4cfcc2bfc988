/*
calendar.go - Statement-aligned date arithmetic

PURPOSE:
  Pure calendar functions that anchor an installment schedule to a card's
  monthly statement day:

  - AlignStartDate: snap a raw purchase date onto the statement day
  - EndDate:        aligned start + tenure months
  - LeftoverTenure: whole months remaining until the end date

ALIGNMENT RULE:
  A purchase made on or before this cycle's statement date is billed in the
  current cycle; anything later rolls into the next month's cycle. Statement
  days that fall past the end of the target month (e.g. day 31 in April)
  clamp to the last day of that month.

TENURE COUNTING:
  LeftoverTenure counts complete calendar months between today and the end
  date. When both dates share a day-of-month, the final partial day is not
  counted as a full remaining month, so the count drops by one more. The
  result goes negative once the end date is in the past; callers treat
  anything <= 0 as inactive.

All dates are day-granularity time.Time values in UTC. No wall-clock reads
happen here; "today" is always passed in by the caller.

SEE ALSO:
  - service.go: uses these during create/update
  - sweep.go:   uses LeftoverTenure when re-aging installments
*/
package installment

import "time"

// Date constructs a day-granularity date in UTC.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Today returns the current date in loc, truncated to day granularity.
func Today(loc *time.Location) time.Time {
	now := time.Now().In(loc)
	return Date(now.Year(), now.Month(), now.Day())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay bounds a statement day to the days actually in the month.
func ClampDay(year int, month time.Month, day int) int {
	if max := DaysIn(year, month); day > max {
		return max
	}
	return day
}

// AlignStartDate snaps a raw purchase date onto the card's statement day.
// If the statement day is on or after the purchase day the aligned start
// stays in the same month; otherwise it moves to the next month.
func AlignStartDate(rawStart time.Time, statementDay int) time.Time {
	year, month := rawStart.Year(), rawStart.Month()
	if statementDay < rawStart.Day() {
		next := Date(year, month, 1).AddDate(0, 1, 0)
		year, month = next.Year(), next.Month()
	}
	return Date(year, month, ClampDay(year, month, statementDay))
}

// EndDate returns the aligned start plus the full tenure in calendar months.
// The day-of-month is preserved, clamping to the last day of shorter months.
func EndDate(alignedStart time.Time, tenureMonths int) time.Time {
	anchor := Date(alignedStart.Year(), alignedStart.Month(), 1).AddDate(0, tenureMonths, 0)
	year, month := anchor.Year(), anchor.Month()
	return Date(year, month, ClampDay(year, month, alignedStart.Day()))
}

// LeftoverTenure returns the number of whole calendar months from today
// until endDate. If the two dates share a day-of-month, one extra month is
// subtracted: the last partial day does not count as a remaining month.
// Negative results mean the installment has already ended.
func LeftoverTenure(endDate, today time.Time) int {
	months := wholeMonthsBetween(today, endDate)
	if endDate.Day() == today.Day() {
		months--
	}
	return months
}

// wholeMonthsBetween counts complete calendar months from `from` to `to`,
// negative if `to` precedes `from`.
func wholeMonthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if months > 0 && to.Day() < from.Day() {
		months--
	} else if months < 0 && to.Day() > from.Day() {
		months++
	}
	return months
}
