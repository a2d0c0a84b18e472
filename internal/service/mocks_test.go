package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
	"github.com/spec-kit/facilities-helpdesk/internal/events"
	"github.com/spec-kit/facilities-helpdesk/internal/repository"
)

// memTicketRepo is a map-backed TicketRepository with the same optimistic
// version semantics as the SQL implementation. GetByID hands out copies so
// a caller's read-modify-write can race a competing writer.
type memTicketRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Ticket
	nextID int

	// beforeUpdate, when set, runs exactly once at the start of the next
	// Update call. Tests use it to interleave a competing write.
	beforeUpdate func()

	lastFilter *repository.TicketFilter
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{byID: make(map[string]*domain.Ticket)}
}

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", r.nextID)
	ticket.Version = 1
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	if ticket.UpdatedAt.IsZero() {
		ticket.UpdatedAt = ticket.CreatedAt
	}
	clone := *ticket
	r.byID[ticket.ID] = &clone
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if f := r.beforeUpdate; f != nil {
		r.beforeUpdate = nil
		f()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != ticket.Version {
		return repository.ErrVersionConflict
	}
	clone := *ticket
	clone.Version++
	clone.UpdatedAt = time.Now().UTC()
	r.byID[ticket.ID] = &clone
	ticket.Version = clone.Version
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (r *memTicketRepo) GetByTicketNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.byID {
		if stored.TicketNumber == number {
			clone := *stored
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = &filter
	var result []domain.Ticket
	for _, stored := range r.byID {
		if filter.ReporterID != nil && stored.ReporterID != *filter.ReporterID {
			continue
		}
		if filter.DepartmentID != nil && stored.DepartmentID != *filter.DepartmentID {
			continue
		}
		result = append(result, *stored)
	}
	return result, nil
}

func (r *memTicketRepo) ListUnsettled(_ context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, stored := range r.byID {
		if stored.Status.IsSettled() {
			continue
		}
		result = append(result, *stored)
	}
	return result, nil
}

// mutate applies fn to the stored row and bumps its version, simulating a
// competing writer that got there first.
func (r *memTicketRepo) mutate(id string, fn func(*domain.Ticket)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := r.byID[id]
	fn(stored)
	stored.Version++
}

type memCategoryRepo struct {
	byID map[string]*domain.Category
}

func newMemCategoryRepo(categories ...*domain.Category) *memCategoryRepo {
	repo := &memCategoryRepo{byID: make(map[string]*domain.Category)}
	for _, category := range categories {
		repo.byID[category.ID] = category
	}
	return repo
}

func (r *memCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	if category.ID == "" {
		category.ID = fmt.Sprintf("cat-%d", len(r.byID)+1)
	}
	r.byID[category.ID] = category
	return nil
}

func (r *memCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	if _, ok := r.byID[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.byID[category.ID] = category
	return nil
}

func (r *memCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *category
	return &copied, nil
}

func (r *memCategoryRepo) GetByCode(_ context.Context, code string) (*domain.Category, error) {
	for _, category := range r.byID {
		if category.Code == code {
			return category, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memCategoryRepo) List(_ context.Context, activeOnly bool) ([]domain.Category, error) {
	var result []domain.Category
	for _, category := range r.byID {
		if activeOnly && !category.IsActive {
			continue
		}
		result = append(result, *category)
	}
	return result, nil
}

type memDepartmentRepo struct {
	byID map[string]*domain.Department
}

func newMemDepartmentRepo(departments ...*domain.Department) *memDepartmentRepo {
	repo := &memDepartmentRepo{byID: make(map[string]*domain.Department)}
	for _, dept := range departments {
		repo.byID[dept.ID] = dept
	}
	return repo
}

func (r *memDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	if dept.ID == "" {
		dept.ID = fmt.Sprintf("dept-%d", len(r.byID)+1)
	}
	r.byID[dept.ID] = dept
	return nil
}

func (r *memDepartmentRepo) Update(_ context.Context, dept *domain.Department) error {
	if _, ok := r.byID[dept.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.byID[dept.ID] = dept
	return nil
}

func (r *memDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	dept, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return dept, nil
}

func (r *memDepartmentRepo) ListActive(_ context.Context) ([]domain.Department, error) {
	var result []domain.Department
	for _, dept := range r.byID {
		if dept.IsActive {
			result = append(result, *dept)
		}
	}
	return result, nil
}

type memHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func (r *memHistoryRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = fmt.Sprintf("history-%d", len(r.entries)+1)
	history.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, *history)
	return nil
}

func (r *memHistoryRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *memHistoryRepo) byType(changeType domain.TicketChangeType) []domain.TicketHistory {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.ChangeType == changeType {
			result = append(result, entry)
		}
	}
	return result
}

type memShiftRepo struct {
	mu   sync.Mutex
	rows map[string][]domain.Shift
	next int
}

func newMemShiftRepo() *memShiftRepo {
	return &memShiftRepo{rows: make(map[string][]domain.Shift)}
}

func shiftKey(staffID string, day time.Time) string {
	return staffID + "|" + day.Format("2006-01-02")
}

func (r *memShiftRepo) ListByStaffDay(_ context.Context, staffID string, day time.Time) ([]domain.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Shift(nil), r.rows[shiftKey(staffID, day)]...), nil
}

func (r *memShiftRepo) ListByStaffIDsDay(_ context.Context, staffIDs []string, day time.Time) (map[string][]domain.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make(map[string][]domain.Shift, len(staffIDs))
	for _, staffID := range staffIDs {
		if rows, ok := r.rows[shiftKey(staffID, day)]; ok {
			result[staffID] = append([]domain.Shift(nil), rows...)
		}
	}
	return result, nil
}

func (r *memShiftRepo) ReplaceDay(_ context.Context, staffID string, day time.Time, shifts []domain.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]domain.Shift, 0, len(shifts))
	for _, shift := range shifts {
		r.next++
		shift.ID = fmt.Sprintf("shift-%d", r.next)
		shift.StaffID = staffID
		shift.Date = day
		stored = append(stored, shift)
	}
	r.rows[shiftKey(staffID, day)] = stored
	return nil
}

type memUserRepo struct {
	byID   map[string]*domain.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.nextID++
	user.ID = fmt.Sprintf("user-%d", r.nextID)
	user.CreatedAt = time.Now().UTC()
	r.byID[user.ID] = user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.byID[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memStaffRepo struct {
	byID map[string]*domain.StaffMember
}

func newMemStaffRepo(members ...*domain.StaffMember) *memStaffRepo {
	repo := &memStaffRepo{byID: make(map[string]*domain.StaffMember)}
	for _, member := range members {
		repo.byID[member.ID] = member
	}
	return repo
}

func (r *memStaffRepo) Create(_ context.Context, staff *domain.StaffMember) error {
	if staff.ID == "" {
		staff.ID = fmt.Sprintf("staff-%d", len(r.byID)+1)
	}
	r.byID[staff.ID] = staff
	return nil
}

func (r *memStaffRepo) Update(_ context.Context, staff *domain.StaffMember) error {
	if _, ok := r.byID[staff.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.byID[staff.ID] = staff
	return nil
}

func (r *memStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	staff, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return staff, nil
}

func (r *memStaffRepo) GetByEmail(_ context.Context, email string) (*domain.StaffMember, error) {
	for _, staff := range r.byID {
		if staff.Email == email {
			return staff, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memStaffRepo) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	var result []domain.StaffMember
	for _, staff := range r.byID {
		if filter.Role != nil && staff.Role != *filter.Role {
			continue
		}
		if filter.DepartmentID != nil {
			if staff.DepartmentID == nil || *staff.DepartmentID != *filter.DepartmentID {
				continue
			}
		}
		if filter.Active != nil && staff.Active != *filter.Active {
			continue
		}
		result = append(result, *staff)
	}
	return result, nil
}

// captureDispatcher records published events for assertion.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
