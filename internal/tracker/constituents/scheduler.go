package constituents

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const refreshTimeout = 30 * time.Second

// DailyRefresher runs a membership refresh once at startup and then once
// every 24 hours, aligned to UTC midnight.
type DailyRefresher struct {
	Tracker *Tracker
	Logger  *zap.Logger
}

func (d *DailyRefresher) Start() {
	go func() {
		// Run immediately once at startup
		d.runOnce()

		// Wait until next UTC midnight
		now := time.Now().UTC()
		nextMidnight := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
		time.Sleep(time.Until(nextMidnight))

		// Then run once every 24 hours
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			d.runOnce()
			<-ticker.C
		}
	}()
}

func (d *DailyRefresher) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if _, err := d.Tracker.Refresh(ctx); err != nil {
		// Next day's run retries; the active list keeps serving meanwhile.
		d.Logger.Warn("scheduled membership refresh failed", zap.Error(err))
	}
}
