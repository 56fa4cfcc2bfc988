package installment_test

import (
	"testing"
	"time"

	"github.com/warp/installment-engine/installment"
)

// =============================================================================
// START DATE ALIGNMENT
// =============================================================================

func TestAlignStartDate_SameMonthWhenStatementDayNotPassed(t *testing.T) {
	// GIVEN: A purchase on Jan 10 and a card that cuts its statement on the 15th
	// WHEN: Aligning the start date
	// THEN: The installment starts this cycle, Jan 15

	got := installment.AlignStartDate(installment.Date(2024, time.January, 10), 15)
	want := installment.Date(2024, time.January, 15)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAlignStartDate_SameDayStaysInMonth(t *testing.T) {
	// A purchase exactly on the statement day belongs to the current cycle.
	got := installment.AlignStartDate(installment.Date(2024, time.January, 15), 15)
	want := installment.Date(2024, time.January, 15)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAlignStartDate_NextMonthWhenStatementDayPassed(t *testing.T) {
	// GIVEN: A purchase on Jan 20, statement day 15 already passed
	// WHEN: Aligning the start date
	// THEN: The installment rolls into the next cycle, Feb 15

	got := installment.AlignStartDate(installment.Date(2024, time.January, 20), 15)
	want := installment.Date(2024, time.February, 15)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAlignStartDate_YearRollover(t *testing.T) {
	got := installment.AlignStartDate(installment.Date(2023, time.December, 20), 15)
	want := installment.Date(2024, time.January, 15)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAlignStartDate_ClampsToMonthEnd(t *testing.T) {
	// Statement day 31 in February clamps to the last day of the month.
	got := installment.AlignStartDate(installment.Date(2024, time.February, 10), 31)
	want := installment.Date(2024, time.February, 29) // leap year
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	got = installment.AlignStartDate(installment.Date(2023, time.February, 10), 31)
	want = installment.Date(2023, time.February, 28)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAlignStartDate_ClampsAfterRollingToNextMonth(t *testing.T) {
	// Purchase on Jan 31, statement day 30 already passed: rolls to February
	// where day 30 doesn't exist and clamps to the 29th.
	got := installment.AlignStartDate(installment.Date(2024, time.January, 31), 30)
	want := installment.Date(2024, time.February, 29)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestAlignStartDate_DayAndMonthProperties(t *testing.T) {
	// For every statement day that exists in every month, the aligned date
	// lands exactly on the statement day, in the raw month when the day has
	// not passed and in the next month otherwise.
	for statementDay := 1; statementDay <= 28; statementDay++ {
		for day := 1; day <= 28; day++ {
			raw := installment.Date(2024, time.March, day)
			aligned := installment.AlignStartDate(raw, statementDay)

			if aligned.Day() != statementDay {
				t.Fatalf("day=%d statementDay=%d: aligned day %d", day, statementDay, aligned.Day())
			}
			wantMonth := time.March
			if statementDay < day {
				wantMonth = time.April
			}
			if aligned.Month() != wantMonth {
				t.Fatalf("day=%d statementDay=%d: aligned month %v, want %v",
					day, statementDay, aligned.Month(), wantMonth)
			}
		}
	}
}

// =============================================================================
// END DATE
// =============================================================================

func TestEndDate_AddsTenureMonths(t *testing.T) {
	got := installment.EndDate(installment.Date(2024, time.February, 15), 12)
	want := installment.Date(2025, time.February, 15)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEndDate_ClampsShortMonths(t *testing.T) {
	got := installment.EndDate(installment.Date(2024, time.January, 31), 1)
	want := installment.Date(2024, time.February, 29)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	got = installment.EndDate(installment.Date(2024, time.January, 31), 3)
	want = installment.Date(2024, time.April, 30)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestEndDate_TenureRoundTrip(t *testing.T) {
	// For start days that exist in every month, the leftover tenure measured
	// from the start date itself is tenure-1: the full span is t months and
	// the shared day-of-month drops the final partial day.
	for tenure := 1; tenure <= 36; tenure++ {
		start := installment.Date(2024, time.March, 15)
		end := installment.EndDate(start, tenure)
		if got := installment.LeftoverTenure(end, start); got != tenure-1 {
			t.Fatalf("tenure=%d: leftover from start = %d, want %d", tenure, got, tenure-1)
		}
	}
}

// =============================================================================
// LEFTOVER TENURE
// =============================================================================

func TestLeftoverTenure_CountsWholeMonths(t *testing.T) {
	// GIVEN: End date 2025-02-15, today 2024-01-20
	// WHEN: Counting leftover months
	// THEN: 12 complete months remain (Jan 20 -> Feb 15 next year is 12
	//       completes plus a partial; days differ so no tie-break)

	got := installment.LeftoverTenure(
		installment.Date(2025, time.February, 15),
		installment.Date(2024, time.January, 20))
	if got != 12 {
		t.Errorf("expected 12, got %d", got)
	}
}

func TestLeftoverTenure_TieBreakOnSharedDay(t *testing.T) {
	// GIVEN: End date 2025-02-15 and today 2024-02-15, same day-of-month
	// WHEN: Counting leftover months
	// THEN: 12 whole months minus one for the tie-break = 11

	got := installment.LeftoverTenure(
		installment.Date(2025, time.February, 15),
		installment.Date(2024, time.February, 15))
	if got != 11 {
		t.Errorf("expected 11, got %d", got)
	}
}

func TestLeftoverTenure_NegativeWhenEnded(t *testing.T) {
	got := installment.LeftoverTenure(
		installment.Date(2024, time.January, 15),
		installment.Date(2024, time.June, 20))
	if got >= 0 {
		t.Errorf("expected negative leftover, got %d", got)
	}
}

func TestLeftoverTenure_DecreasesByOnePerMonth(t *testing.T) {
	// Advancing today by one month (same day-of-month) always strips exactly
	// one leftover month.
	end := installment.Date(2026, time.June, 10)
	today := installment.Date(2024, time.January, 20)

	prev := installment.LeftoverTenure(end, today)
	for i := 0; i < 24; i++ {
		today = today.AddDate(0, 1, 0)
		got := installment.LeftoverTenure(end, today)
		if got != prev-1 {
			t.Fatalf("at %v: leftover %d, want %d", today, got, prev-1)
		}
		prev = got
	}
}

func TestLeftoverTenure_Idempotent(t *testing.T) {
	end := installment.Date(2025, time.February, 15)
	today := installment.Date(2024, time.February, 15)
	first := installment.LeftoverTenure(end, today)
	second := installment.LeftoverTenure(end, today)
	if first != second {
		t.Errorf("expected identical results, got %d then %d", first, second)
	}
}
