package roster

import (
	"testing"
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
)

var day = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func working(start, end int) domain.Shift {
	return domain.Shift{
		StaffID:     "s1",
		Date:        day,
		StartMinute: start,
		EndMinute:   end,
		Status:      domain.ShiftStatusScheduled,
	}
}

func at(hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestResolveEligibility(t *testing.T) {
	morning := working(8*60, 12*60)

	cases := []struct {
		name    string
		shifts  []domain.Shift
		instant time.Time
		want    Eligibility
	}{
		{"no rows", nil, at(9, 0), EligibilityUnscheduled},
		{"inside window", []domain.Shift{morning}, at(9, 0), EligibilityOnDuty},
		{"outside window", []domain.Shift{morning}, at(14, 0), EligibilityUnscheduled},
		{"start boundary inclusive", []domain.Shift{morning}, at(8, 0), EligibilityOnDuty},
		{"end boundary inclusive", []domain.Shift{morning}, at(12, 0), EligibilityOnDuty},
		{"just past end", []domain.Shift{morning}, at(12, 1), EligibilityUnscheduled},
		{
			"overlapping windows union",
			[]domain.Shift{morning, working(11*60, 15*60)},
			at(13, 0),
			EligibilityOnDuty,
		},
		{
			"gap between windows",
			[]domain.Shift{morning, working(16*60, 20*60)},
			at(14, 0),
			EligibilityUnscheduled,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveEligibility(tc.shifts, tc.instant); got != tc.want {
				t.Errorf("ResolveEligibility = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestLeaveOverridesCoverage(t *testing.T) {
	leave := domain.Shift{
		StaffID:     "s1",
		Date:        day,
		StartMinute: 0,
		EndMinute:   1439,
		Status:      domain.ShiftStatusLeave,
	}
	shifts := []domain.Shift{working(8*60, 12*60), leave}

	// Leave wins even at an instant a working row covers.
	if got := ResolveEligibility(shifts, at(9, 0)); got != EligibilityOnLeave {
		t.Errorf("ResolveEligibility = %s, want ON_LEAVE", got)
	}
}

func TestOtherDayRowsIgnored(t *testing.T) {
	otherDay := working(8*60, 12*60)
	otherDay.Date = day.AddDate(0, 0, 1)

	if got := ResolveEligibility([]domain.Shift{otherDay}, at(9, 0)); got != EligibilityUnscheduled {
		t.Errorf("ResolveEligibility = %s, want UNSCHEDULED", got)
	}
}

func TestMinuteOfDayAndDayOf(t *testing.T) {
	instant := time.Date(2024, 5, 6, 14, 30, 59, 0, time.UTC)
	if got := MinuteOfDay(instant); got != 14*60+30 {
		t.Errorf("MinuteOfDay = %d, want %d", got, 14*60+30)
	}
	if got := DayOf(instant); !got.Equal(day) {
		t.Errorf("DayOf = %v, want %v", got, day)
	}
}
