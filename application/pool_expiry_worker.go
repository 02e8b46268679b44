package application

import (
	"context"
	"time"

	"fairbook/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// PoolExpiryWorker periodically closes active pools that passed their
// closing time, so pools stop accepting bets even when nobody calls them.
type PoolExpiryWorker struct {
	bettingPools interfaces.BettingPoolService
	interval     time.Duration
}

// NewPoolExpiryWorker creates the worker with the given sweep interval
func NewPoolExpiryWorker(bettingPools interfaces.BettingPoolService, interval time.Duration) *PoolExpiryWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PoolExpiryWorker{
		bettingPools: bettingPools,
		interval:     interval,
	}
}

// Start begins the worker and returns a stop function
func (w *PoolExpiryWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithField("interval", w.interval).Info("Pool expiry worker started")
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Pool expiry worker shutting down (context cancelled)")
				return
			case <-stopChan:
				log.Info("Pool expiry worker shutting down (stop requested)")
				return
			case <-ticker.C:
				closed, err := w.bettingPools.CloseExpiredPools(ctx)
				if err != nil {
					log.WithError(err).Error("Failed to close expired pools")
					continue
				}
				if closed > 0 {
					log.WithField("closed", closed).Info("Closed expired pools")
				}
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}
