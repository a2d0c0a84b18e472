package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
	"github.com/spec-kit/facilities-helpdesk/internal/events"
	"github.com/spec-kit/facilities-helpdesk/internal/roster"
)

var rosterDay = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

type scheduleFixture struct {
	service    *ScheduleService
	shifts     *memShiftRepo
	dispatcher *captureDispatcher
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	deptID := "dept-fac"
	member := &domain.StaffMember{ID: "staff-1", Name: "Dana", Role: domain.StaffRoleTechnician, DepartmentID: &deptID, Active: true}
	shifts := newMemShiftRepo()
	dispatcher := &captureDispatcher{}
	service := NewScheduleService(ScheduleDependencies{
		ShiftRepo:  shifts,
		StaffRepo:  newMemStaffRepo(member),
		Dispatcher: dispatcher,
		Clock:      func() time.Time { return rosterDay.Add(9 * time.Hour) },
	})
	return &scheduleFixture{service: service, shifts: shifts, dispatcher: dispatcher}
}

func supervisorActor() *domain.StaffMember {
	deptID := "dept-fac"
	return &domain.StaffMember{ID: "staff-sup", Role: domain.StaffRoleSupervisor, DepartmentID: &deptID, Active: true}
}

func windowsOf(rows []domain.Shift) [][2]int {
	windows := make([][2]int, 0, len(rows))
	for _, row := range rows {
		windows = append(windows, [2]int{row.StartMinute, row.EndMinute})
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i][0] < windows[j][0] })
	return windows
}

func TestSetDayStateWritesSlotWindows(t *testing.T) {
	fixture := newScheduleFixture(t)

	rows, err := fixture.service.SetDayState(context.Background(), supervisorActor(), "staff-1", rosterDay, DayState{
		Slots: []ShiftSlot{SlotMorning, SlotEvening},
	})
	if err != nil {
		t.Fatalf("SetDayState: %v", err)
	}
	want := [][2]int{{480, 720}, {960, 1200}}
	got := windowsOf(rows)
	if len(got) != len(want) {
		t.Fatalf("rows = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("window[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	for _, row := range rows {
		if row.Status != domain.ShiftStatusOnCall {
			t.Errorf("status = %s, want ON_CALL", row.Status)
		}
		if row.DepartmentID != "dept-fac" {
			t.Errorf("department = %s, want staff department", row.DepartmentID)
		}
	}
	if got := fixture.dispatcher.byType(events.EventShiftDayChanged); len(got) != 1 {
		t.Errorf("day-changed events = %d, want 1", len(got))
	}
}

func TestSetDayStateRejectsLeaveWithSlots(t *testing.T) {
	fixture := newScheduleFixture(t)

	_, err := fixture.service.SetDayState(context.Background(), supervisorActor(), "staff-1", rosterDay, DayState{
		OnLeave: true,
		Slots:   []ShiftSlot{SlotMorning},
	})
	if code := domainCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %s, want VALIDATION_FAILED", code)
	}
}

func TestSetDayStateLeaveCoversFullDay(t *testing.T) {
	fixture := newScheduleFixture(t)

	rows, err := fixture.service.SetDayState(context.Background(), supervisorActor(), "staff-1", rosterDay, DayState{
		OnLeave: true,
		Note:    "annual leave",
	})
	if err != nil {
		t.Fatalf("SetDayState: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want single leave row", len(rows))
	}
	leave := rows[0]
	if leave.Status != domain.ShiftStatusLeave {
		t.Fatalf("status = %s, want LEAVE", leave.Status)
	}
	if leave.StartMinute != 0 || leave.EndMinute != 23*60+59 {
		t.Errorf("window = %d..%d, want full day", leave.StartMinute, leave.EndMinute)
	}
	if leave.Note != "annual leave" {
		t.Errorf("note = %q", leave.Note)
	}
}

func TestSetDayStateDeduplicatesSlots(t *testing.T) {
	fixture := newScheduleFixture(t)

	rows, err := fixture.service.SetDayState(context.Background(), supervisorActor(), "staff-1", rosterDay, DayState{
		Slots: []ShiftSlot{SlotAfternoon, SlotAfternoon},
	})
	if err != nil {
		t.Fatalf("SetDayState: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, duplicate slots must collapse", len(rows))
	}
}

func TestSetDayStateUnknownSlot(t *testing.T) {
	fixture := newScheduleFixture(t)

	_, err := fixture.service.SetDayState(context.Background(), supervisorActor(), "staff-1", rosterDay, DayState{
		Slots: []ShiftSlot{ShiftSlot("NIGHT")},
	})
	if code := domainCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %s, want VALIDATION_FAILED", code)
	}
}

func TestToggleSlotClickSemantics(t *testing.T) {
	fixture := newScheduleFixture(t)
	ctx := context.Background()
	actor := supervisorActor()
	morning := SlotMorning
	afternoon := SlotAfternoon

	// First click turns the slot on.
	rows, err := fixture.service.ToggleSlot(ctx, actor, "staff-1", rosterDay, &morning, false)
	if err != nil {
		t.Fatalf("ToggleSlot on: %v", err)
	}
	if len(rows) != 1 || rows[0].StartMinute != 480 {
		t.Fatalf("rows after first click = %v", windowsOf(rows))
	}

	// A second slot accumulates.
	rows, err = fixture.service.ToggleSlot(ctx, actor, "staff-1", rosterDay, &afternoon, false)
	if err != nil {
		t.Fatalf("ToggleSlot second: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	// Clicking an active slot turns only that slot off.
	rows, err = fixture.service.ToggleSlot(ctx, actor, "staff-1", rosterDay, &morning, false)
	if err != nil {
		t.Fatalf("ToggleSlot off: %v", err)
	}
	if len(rows) != 1 || rows[0].StartMinute != 720 {
		t.Fatalf("rows after toggle off = %v", windowsOf(rows))
	}
}

func TestToggleLeaveReplacesWorkingSlots(t *testing.T) {
	fixture := newScheduleFixture(t)
	ctx := context.Background()
	actor := supervisorActor()

	if _, err := fixture.service.SetDayState(ctx, actor, "staff-1", rosterDay, DayState{Slots: []ShiftSlot{SlotMorning, SlotAfternoon}}); err != nil {
		t.Fatalf("seed slots: %v", err)
	}
	rows, err := fixture.service.ToggleSlot(ctx, actor, "staff-1", rosterDay, nil, true)
	if err != nil {
		t.Fatalf("ToggleSlot leave: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != domain.ShiftStatusLeave {
		t.Fatalf("rows = %v, want single leave row", rows)
	}
}

func TestToggleSlotClearsLeave(t *testing.T) {
	fixture := newScheduleFixture(t)
	ctx := context.Background()
	actor := supervisorActor()
	evening := SlotEvening

	if _, err := fixture.service.SetDayState(ctx, actor, "staff-1", rosterDay, DayState{OnLeave: true}); err != nil {
		t.Fatalf("seed leave: %v", err)
	}
	rows, err := fixture.service.ToggleSlot(ctx, actor, "staff-1", rosterDay, &evening, false)
	if err != nil {
		t.Fatalf("ToggleSlot: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want leave row replaced by one slot", len(rows))
	}
	if rows[0].Status != domain.ShiftStatusOnCall || rows[0].StartMinute != 960 {
		t.Fatalf("row = %+v, want EVENING working row", rows[0])
	}
}

func TestToggleSlotKeepsDayNote(t *testing.T) {
	fixture := newScheduleFixture(t)
	ctx := context.Background()
	actor := supervisorActor()
	afternoon := SlotAfternoon

	if _, err := fixture.service.SetDayState(ctx, actor, "staff-1", rosterDay, DayState{
		Slots: []ShiftSlot{SlotMorning},
		Note:  "covering front desk",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rows, err := fixture.service.ToggleSlot(ctx, actor, "staff-1", rosterDay, &afternoon, false)
	if err != nil {
		t.Fatalf("ToggleSlot: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Note != "covering front desk" {
			t.Errorf("note = %q, toggling a slot must not drop the day note", row.Note)
		}
	}
}

func TestToggleSlotRequiresSlotOrLeave(t *testing.T) {
	fixture := newScheduleFixture(t)

	_, err := fixture.service.ToggleSlot(context.Background(), supervisorActor(), "staff-1", rosterDay, nil, false)
	if code := domainCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %s, want VALIDATION_FAILED", code)
	}
}

func TestConcurrentTogglesNeverMixLeaveAndWork(t *testing.T) {
	fixture := newScheduleFixture(t)
	ctx := context.Background()
	actor := supervisorActor()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				slot := SlotMorning
				_, _ = fixture.service.ToggleSlot(ctx, actor, "staff-1", rosterDay, &slot, false)
				return
			}
			_, _ = fixture.service.ToggleSlot(ctx, actor, "staff-1", rosterDay, nil, true)
		}(i)
	}
	wg.Wait()

	rows, err := fixture.service.DaySchedule(ctx, "staff-1", rosterDay)
	if err != nil {
		t.Fatalf("DaySchedule: %v", err)
	}
	var leave, working int
	for _, row := range rows {
		if row.Status == domain.ShiftStatusLeave {
			leave++
		} else {
			working++
		}
	}
	if leave > 0 && working > 0 {
		t.Fatalf("day holds %d leave and %d working rows, the two must never coexist", leave, working)
	}
	if leave > 1 {
		t.Fatalf("leave rows = %d, want at most 1", leave)
	}
}

func TestEligibilityReflectsStoredDay(t *testing.T) {
	fixture := newScheduleFixture(t)
	ctx := context.Background()
	actor := supervisorActor()

	if _, err := fixture.service.SetDayState(ctx, actor, "staff-1", rosterDay, DayState{Slots: []ShiftSlot{SlotMorning}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cases := []struct {
		name string
		at   time.Time
		want roster.Eligibility
	}{
		{"inside morning", rosterDay.Add(9 * time.Hour), roster.EligibilityOnDuty},
		{"after morning", rosterDay.Add(15 * time.Hour), roster.EligibilityUnscheduled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := fixture.service.Eligibility(ctx, "staff-1", tc.at)
			if err != nil {
				t.Fatalf("Eligibility: %v", err)
			}
			if got != tc.want {
				t.Errorf("eligibility = %s, want %s", got, tc.want)
			}
		})
	}

	if _, err := fixture.service.SetDayState(ctx, actor, "staff-1", rosterDay, DayState{OnLeave: true}); err != nil {
		t.Fatalf("switch to leave: %v", err)
	}
	got, err := fixture.service.Eligibility(ctx, "staff-1", rosterDay.Add(9*time.Hour))
	if err != nil {
		t.Fatalf("Eligibility: %v", err)
	}
	if got != roster.EligibilityOnLeave {
		t.Errorf("eligibility = %s, want ON_LEAVE", got)
	}
}

func TestSetDayStateUnknownStaff(t *testing.T) {
	fixture := newScheduleFixture(t)

	_, err := fixture.service.SetDayState(context.Background(), supervisorActor(), "staff-ghost", rosterDay, DayState{OnLeave: true})
	if code := domainCode(t, err); code != "NOT_FOUND" {
		t.Errorf("code = %s, want NOT_FOUND", code)
	}
}
