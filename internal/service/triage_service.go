package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/facilities-helpdesk/internal/repository"
	"github.com/spec-kit/facilities-helpdesk/internal/roster"
	"github.com/spec-kit/facilities-helpdesk/internal/sla"
	"github.com/spec-kit/facilities-helpdesk/internal/triage"
	apperrors "github.com/spec-kit/facilities-helpdesk/pkg/util"
)

const (
	duplicateGroupsCacheKey = "triage:duplicate_groups"
	complianceCacheKey      = "triage:compliance_rate"
)

// TriageService provides the admin triage aggregates: duplicate clusters,
// SLA compliance, and ranked assignment candidates. Reads tolerate slightly
// stale snapshots; duplicate groups and the compliance rate are cached in
// Redis for a short TTL.
type TriageService struct {
	tickets  repository.TicketRepository
	staff    repository.StaffRepository
	shifts   repository.ShiftRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
	clock    Clock
}

// TriageDependencies bundles requirements for the triage service.
type TriageDependencies struct {
	TicketRepo repository.TicketRepository
	StaffRepo  repository.StaffRepository
	ShiftRepo  repository.ShiftRepository
	Cache      *redis.Client
	CacheTTL   time.Duration
	Logger     *zap.Logger
	Clock      Clock
}

// NewTriageService constructs the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &TriageService{
		tickets:  deps.TicketRepo,
		staff:    deps.StaffRepo,
		shifts:   deps.ShiftRepo,
		cache:    deps.Cache,
		cacheTTL: ttl,
		logger:   logger,
		clock:    clock,
	}
}

// DuplicateGroups returns probable duplicate clusters over the unsettled
// ticket set, largest and oldest first.
func (s *TriageService) DuplicateGroups(ctx context.Context) ([]triage.DuplicateGroup, error) {
	if cached, ok := s.cachedGroups(ctx); ok {
		return cached, nil
	}
	tickets, err := s.tickets.ListUnsettled(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	groups := triage.GroupDuplicates(tickets)
	s.storeCache(ctx, duplicateGroupsCacheKey, groups)
	return groups, nil
}

// ComplianceRate returns the percentage of unsettled tickets currently
// within both SLA deadlines.
func (s *TriageService) ComplianceRate(ctx context.Context) (int, error) {
	if s.cache != nil {
		if val, err := s.cache.Get(ctx, complianceCacheKey).Int(); err == nil {
			return val, nil
		}
	}
	tickets, err := s.tickets.ListUnsettled(ctx)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	rate := sla.ComplianceRate(tickets, s.clock())
	if s.cache != nil {
		if err := s.cache.Set(ctx, complianceCacheKey, rate, s.cacheTTL).Err(); err != nil {
			s.logger.Debug("compliance cache write failed", zap.Error(err))
		}
	}
	return rate, nil
}

// CandidatesFor ranks assignment candidates for a ticket at the current
// instant: on-duty staff first, unscheduled next, on-leave flagged last.
func (s *TriageService) CandidatesFor(ctx context.Context, ticketID string) ([]triage.Candidate, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	active := true
	staffList, err := s.staff.List(ctx, repository.StaffFilter{
		DepartmentID: &ticket.DepartmentID,
		Active:       &active,
		Limit:        1000,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.clock()
	staffIDs := make([]string, 0, len(staffList))
	for _, member := range staffList {
		staffIDs = append(staffIDs, member.ID)
	}
	shiftsByStaff, err := s.shifts.ListByStaffIDsDay(ctx, staffIDs, roster.DayOf(now))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return triage.CandidatesFor(ticket, staffList, shiftsByStaff, now), nil
}

// InvalidateCaches drops cached aggregates after bulk data changes.
func (s *TriageService) InvalidateCaches(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, duplicateGroupsCacheKey, complianceCacheKey).Err(); err != nil {
		s.logger.Debug("triage cache invalidation failed", zap.Error(err))
	}
}

func (s *TriageService) cachedGroups(ctx context.Context) ([]triage.DuplicateGroup, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, duplicateGroupsCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var groups []triage.DuplicateGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, false
	}
	return groups, true
}

func (s *TriageService) storeCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("triage cache write failed", zap.Error(err))
	}
}
