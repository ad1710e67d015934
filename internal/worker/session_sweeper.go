package worker

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Purger removes expired entries and reports how many went.
type Purger interface {
	Purge() int
}

// StartSessionSweeper schedules periodic purges of expired in-memory
// sessions. The caller stops the returned scheduler on shutdown.
func StartSessionSweeper(spec string, store Purger, logger *zap.Logger) (*cron.Cron, error) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(spec, func() {
		if removed := store.Purge(); removed > 0 {
			logger.Debug("expired sessions purged", zap.Int("removed", removed))
		}
	})
	if err != nil {
		return nil, err
	}
	scheduler.Start()
	return scheduler, nil
}
