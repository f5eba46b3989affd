package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/services"
	"github.com/username/stockfolio/src/state"
)

const defaultRefreshTimeout = 2 * time.Minute

type sessionRefresher interface {
	RefreshPrices(ctx context.Context, sessionID string) (*services.RefreshResult, error)
}

type sessionLister interface {
	Sessions(ctx context.Context) ([]string, error)
}

// PriceRefreshJob refreshes the prices of every session that has stored portfolios.
type PriceRefreshJob struct {
	refresher sessionRefresher
	sessions  sessionLister
	timeout   time.Duration
}

func NewPriceRefreshJob(refresher sessionRefresher, sessions sessionLister, timeout time.Duration) *PriceRefreshJob {
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}
	return &PriceRefreshJob{refresher: refresher, sessions: sessions, timeout: timeout}
}

func (j *PriceRefreshJob) Name() string { return "price_refresh" }

func (j *PriceRefreshJob) Run() error {
	ctx := context.Background()
	ids, err := j.sessions.Sessions(ctx)
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}

	var errs []error
	refreshed := 0
	for _, id := range ids {
		rctx, cancel := context.WithTimeout(ctx, j.timeout)
		_, err := j.refresher.RefreshPrices(rctx, id)
		cancel()

		switch {
		case err == nil:
			refreshed++
		case errors.Is(err, state.ErrPortfolioNotLoaded), errors.Is(err, services.ErrNoPricesResolved), errors.Is(err, services.ErrStaleRefresh):
			logger.L.Debug("Skipping session refresh", "sessionID", id, "reason", err)
		default:
			errs = append(errs, fmt.Errorf("session %s: %w", id, err))
		}
	}
	logger.L.Info("Scheduled price refresh complete", "sessions", len(ids), "refreshed", refreshed, "failed", len(errs))
	return errors.Join(errs...)
}
