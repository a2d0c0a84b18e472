package worker

import (
	"context"
	"time"

	"github.com/spec-kit/facilities-helpdesk/internal/service"
)

// StartSlaWorker launches the breach monitor loop in a goroutine.
func StartSlaWorker(ctx context.Context, monitor *service.SlaMonitor, interval time.Duration) {
	if monitor == nil {
		return
	}
	go monitor.Run(ctx, interval)
}
