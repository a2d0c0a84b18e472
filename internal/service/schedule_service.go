package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
	"github.com/spec-kit/facilities-helpdesk/internal/events"
	"github.com/spec-kit/facilities-helpdesk/internal/repository"
	"github.com/spec-kit/facilities-helpdesk/internal/roster"
	apperrors "github.com/spec-kit/facilities-helpdesk/pkg/util"
)

// ShiftSlot names a preset working window on the day roster grid.
type ShiftSlot string

const (
	SlotMorning   ShiftSlot = "MORNING"
	SlotAfternoon ShiftSlot = "AFTERNOON"
	SlotEvening   ShiftSlot = "EVENING"
)

// slotWindows holds the minute-of-day presets each slot toggles.
var slotWindows = map[ShiftSlot][2]int{
	SlotMorning:   {8 * 60, 12 * 60},
	SlotAfternoon: {12 * 60, 16 * 60},
	SlotEvening:   {16 * 60, 20 * 60},
}

const fullDayEndMinute = 23*60 + 59

// DayState is the desired schedule for one staff member on one day:
// either a full-day leave or a set of working slots, never both.
type DayState struct {
	OnLeave bool
	Slots   []ShiftSlot
	Note    string
}

// ScheduleService owns shift mutations and roster reads. All mutations for
// one (staff, day) pair funnel through a keyed mutex plus one transactional
// row swap, which is what keeps the Leave-XOR-working invariant intact under
// concurrent toggles.
type ScheduleService struct {
	shifts     repository.ShiftRepository
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	clock      Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// ScheduleDependencies bundles requirements for the schedule service.
type ScheduleDependencies struct {
	ShiftRepo  repository.ShiftRepository
	StaffRepo  repository.StaffRepository
	Dispatcher events.Dispatcher
	Clock      Clock
}

// NewScheduleService constructs the service.
func NewScheduleService(deps ScheduleDependencies) *ScheduleService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &ScheduleService{
		shifts:     deps.ShiftRepo,
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		clock:      clock,
		locks:      make(map[string]*sync.Mutex),
	}
}

// SetDayState replaces a staff member's schedule for one day with the
// desired state in a single transactional swap.
func (s *ScheduleService) SetDayState(ctx context.Context, actor *domain.StaffMember, staffID string, day time.Time, state DayState) ([]domain.Shift, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("staff required")
	}
	if state.OnLeave && len(state.Slots) > 0 {
		return nil, apperrors.NewValidationError("leave excludes working slots", nil)
	}

	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": staffID})
		}
		return nil, apperrors.MapError(err)
	}
	if member.DepartmentID == nil {
		return nil, apperrors.NewConflict("staff has no department", map[string]any{"staff_id": staffID})
	}

	rows, err := s.buildDayRows(member, day, state)
	if err != nil {
		return nil, err
	}

	day = roster.DayOf(day)
	unlock := s.lockDay(staffID, day)
	defer unlock()

	if err := s.shifts.ReplaceDay(ctx, staffID, day, rows); err != nil {
		return nil, apperrors.MapError(err)
	}

	stored, err := s.shifts.ListByStaffDay(ctx, staffID, day)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishDayChanged(ctx, actor, staffID, day, stored, state.OnLeave)
	return stored, nil
}

// ToggleSlot applies the roster grid's click semantics: turning an already-on
// slot off, turning an off slot on (removing any leave row first), or
// switching the whole day to leave.
func (s *ScheduleService) ToggleSlot(ctx context.Context, actor *domain.StaffMember, staffID string, day time.Time, slot *ShiftSlot, leave bool) ([]domain.Shift, error) {
	day = roster.DayOf(day)
	if leave {
		return s.SetDayState(ctx, actor, staffID, day, DayState{OnLeave: true})
	}
	if slot == nil {
		return nil, apperrors.NewValidationError("slot required", nil)
	}
	if _, ok := slotWindows[*slot]; !ok {
		return nil, apperrors.NewValidationError("unknown slot", map[string]any{"slot": *slot})
	}

	existing, err := s.shifts.ListByStaffDay(ctx, staffID, day)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	state := DayState{}
	found := false
	for _, row := range existing {
		// A toggle rearranges windows, it does not erase the day's note.
		if state.Note == "" {
			state.Note = row.Note
		}
		if row.Status == domain.ShiftStatusLeave {
			// Selecting a working slot clears the leave day.
			continue
		}
		current := slotForWindow(row.StartMinute, row.EndMinute)
		if current == nil {
			continue
		}
		if *current == *slot {
			found = true
			continue
		}
		state.Slots = append(state.Slots, *current)
	}
	if !found {
		state.Slots = append(state.Slots, *slot)
	}
	return s.SetDayState(ctx, actor, staffID, day, state)
}

// DaySchedule returns one staff member's rows for a day.
func (s *ScheduleService) DaySchedule(ctx context.Context, staffID string, day time.Time) ([]domain.Shift, error) {
	shifts, err := s.shifts.ListByStaffDay(ctx, staffID, roster.DayOf(day))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return shifts, nil
}

// Eligibility resolves a staff member's duty state at the given instant.
func (s *ScheduleService) Eligibility(ctx context.Context, staffID string, instant time.Time) (roster.Eligibility, error) {
	shifts, err := s.shifts.ListByStaffDay(ctx, staffID, roster.DayOf(instant))
	if err != nil {
		return "", apperrors.MapError(err)
	}
	return roster.ResolveEligibility(shifts, instant), nil
}

func (s *ScheduleService) buildDayRows(member *domain.StaffMember, day time.Time, state DayState) ([]domain.Shift, error) {
	day = roster.DayOf(day)
	if state.OnLeave {
		return []domain.Shift{{
			StaffID:      member.ID,
			DepartmentID: *member.DepartmentID,
			Date:         day,
			StartMinute:  0,
			EndMinute:    fullDayEndMinute,
			Status:       domain.ShiftStatusLeave,
			Note:         state.Note,
		}}, nil
	}
	seen := make(map[ShiftSlot]struct{}, len(state.Slots))
	rows := make([]domain.Shift, 0, len(state.Slots))
	for _, slot := range state.Slots {
		window, ok := slotWindows[slot]
		if !ok {
			return nil, apperrors.NewValidationError("unknown slot", map[string]any{"slot": slot})
		}
		if _, dup := seen[slot]; dup {
			continue
		}
		seen[slot] = struct{}{}
		rows = append(rows, domain.Shift{
			StaffID:      member.ID,
			DepartmentID: *member.DepartmentID,
			Date:         day,
			StartMinute:  window[0],
			EndMinute:    window[1],
			Status:       domain.ShiftStatusOnCall,
			Note:         state.Note,
		})
	}
	return rows, nil
}

// lockDay serializes mutations per (staff, day).
func (s *ScheduleService) lockDay(staffID string, day time.Time) func() {
	key := fmt.Sprintf("%s|%s", staffID, day.Format("2006-01-02"))
	s.mu.Lock()
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	return lock.Unlock
}

func (s *ScheduleService) publishDayChanged(ctx context.Context, actor *domain.StaffMember, staffID string, day time.Time, rows []domain.Shift, onLeave bool) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventShiftDayChanged,
		Actor:     staffActor(actor.ID),
		Timestamp: s.clock(),
		Payload: events.ShiftDayChangedPayload{
			StaffID:  staffID,
			Day:      day,
			RowCount: len(rows),
			OnLeave:  onLeave,
		},
	})
}

func slotForWindow(start, end int) *ShiftSlot {
	for slot, window := range slotWindows {
		if window[0] == start && window[1] == end {
			s := slot
			return &s
		}
	}
	return nil
}
