package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/facilities-helpdesk/internal/domain"
	"github.com/spec-kit/facilities-helpdesk/internal/events"
	"github.com/spec-kit/facilities-helpdesk/internal/observability"
	"github.com/spec-kit/facilities-helpdesk/internal/repository"
	"github.com/spec-kit/facilities-helpdesk/internal/sla"
)

const (
	breachKindResponse   = "response"
	breachKindResolution = "resolution"
)

// SlaMonitor periodically scans unsettled tickets and raises an alarm the
// first time each deadline is observed breached. Alarms are de-duplicated
// per ticket and kind for the lifetime of the process; restarts re-raise
// alarms for tickets still breached, which downstream consumers tolerate.
type SlaMonitor struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      Clock

	mu      sync.Mutex
	alarmed map[string]struct{}
}

// SlaMonitorDependencies wires the monitor's collaborators.
type SlaMonitorDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Clock       Clock
}

// NewSlaMonitor builds the monitor.
func NewSlaMonitor(deps SlaMonitorDependencies) *SlaMonitor {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlaMonitor{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		clock:      clock,
		alarmed:    make(map[string]struct{}),
	}
}

// Run loops until the context is cancelled, scanning every interval.
func (m *SlaMonitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("sla monitor started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sla monitor stopped")
			return
		case <-ticker.C:
			if err := m.Scan(ctx); err != nil {
				m.logger.Error("sla scan failed", zap.Error(err))
			}
		}
	}
}

// Scan performs a single pass over unsettled tickets.
func (m *SlaMonitor) Scan(ctx context.Context) error {
	now := m.clock()
	tickets, err := m.tickets.ListUnsettled(ctx)
	if err != nil {
		return err
	}

	for i := range tickets {
		ticket := &tickets[i]
		if sla.IsResponseBreached(ticket, now) {
			m.raise(ctx, ticket, breachKindResponse, ticket.SlaResponseDue, now)
		}
		if sla.IsResolutionBreached(ticket, now) {
			m.raise(ctx, ticket, breachKindResolution, ticket.SlaResolutionDue, now)
		}
	}
	return nil
}

func (m *SlaMonitor) raise(ctx context.Context, ticket *domain.Ticket, kind string, dueAt, now time.Time) {
	key := ticket.ID + ":" + kind
	m.mu.Lock()
	if _, seen := m.alarmed[key]; seen {
		m.mu.Unlock()
		return
	}
	m.alarmed[key] = struct{}{}
	m.mu.Unlock()

	m.logger.Warn("sla breach detected",
		zap.String("ticket_id", ticket.ID),
		zap.String("ticket_number", ticket.TicketNumber),
		zap.String("kind", kind),
		zap.Time("due_at", dueAt))

	if m.metrics != nil {
		m.metrics.RecordSlaBreach(kind)
	}

	if m.history != nil {
		entry := &domain.TicketHistory{
			TicketID:      ticket.ID,
			ChangedByType: domain.ActorTypeSystem,
			ChangeType:    domain.ChangeTypeSlaAlarm,
			OldValue:      nil,
			NewValue:      map[string]any{"kind": kind, "due_at": dueAt, "detected_at": now},
		}
		if err := m.history.Create(ctx, entry); err != nil {
			m.logger.Error("sla alarm history write failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	if m.dispatcher != nil {
		_ = m.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSlaBreached,
			TicketID:  ticket.ID,
			Actor:     events.Actor{Type: domain.SubjectTypeSystem},
			Timestamp: now,
			Payload: events.SlaBreachedPayload{
				Kind:          kind,
				DueAt:         dueAt,
				DetectedAt:    now,
				TicketNumber:  ticket.TicketNumber,
				AssigneeStaff: ticket.AssigneeID,
			},
		})
	}
}
