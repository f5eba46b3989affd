package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/stockfolio/src/database"
	"github.com/username/stockfolio/src/events"
	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/state"
)

const (
	DefaultSessionExpiration = 24 * time.Hour
	SessionCleanupInterval   = 30 * time.Minute
)

// session holds one user's state. The State value is replaced whole on every change.
type session struct {
	mu         sync.Mutex
	state      state.State
	generation uint64 // bumped by every price refresh that starts
}

type portfolioServiceImpl struct {
	uploadService UploadService
	priceService  PriceService
	reducer       *state.Reducer
	store         database.PortfolioStore
	bus           *events.Bus

	mu       sync.Mutex // guards installing new sessions
	sessions *cache.Cache
}

func NewPortfolioService(
	uploadService UploadService,
	priceService PriceService,
	reducer *state.Reducer,
	store database.PortfolioStore,
	bus *events.Bus,
	sessionExpiration time.Duration,
) PortfolioService {
	if sessionExpiration <= 0 {
		sessionExpiration = DefaultSessionExpiration
	}
	return &portfolioServiceImpl{
		uploadService: uploadService,
		priceService:  priceService,
		reducer:       reducer,
		store:         store,
		bus:           bus,
		sessions:      cache.New(sessionExpiration, SessionCleanupInterval),
	}
}

// session returns the live session, restoring it from the store on first use.
// The store is read without holding s.mu so one slow restore does not hold up other sessions.
func (s *portfolioServiceImpl) session(ctx context.Context, sessionID string) *session {
	if sess, ok := s.live(sessionID); ok {
		return sess
	}
	restored := s.restore(ctx, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	// A concurrent first request may have installed the session meanwhile.
	if sess, ok := s.live(sessionID); ok {
		return sess
	}
	sess := &session{state: restored}
	s.sessions.SetDefault(sessionID, sess)
	return sess
}

// live returns a cached session and slides its expiry.
func (s *portfolioServiceImpl) live(sessionID string) (*session, bool) {
	v, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, false
	}
	s.sessions.SetDefault(sessionID, v)
	return v.(*session), true
}

// restore rebuilds a session's state from the store. Store failures degrade to an empty state.
func (s *portfolioServiceImpl) restore(ctx context.Context, sessionID string) state.State {
	st := state.State{}
	for _, id := range []models.PortfolioID{models.Portfolio1, models.Portfolio2} {
		p, err := s.store.Load(ctx, database.PortfolioKey(sessionID, id))
		if err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				logger.L.Warn("Failed to restore portfolio, starting empty", "sessionID", sessionID, "portfolioID", id, "error", err)
			}
			continue
		}
		var rerr error
		if st, rerr = s.reducer.Reduce(st, state.LoadPortfolio{Portfolio: p}); rerr != nil {
			logger.L.Warn("Discarding stored portfolio", "sessionID", sessionID, "portfolioID", id, "error", rerr)
		}
	}
	return st
}

func (s *portfolioServiceImpl) GetState(ctx context.Context, sessionID string) (state.State, error) {
	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state, nil
}

func (s *portfolioServiceImpl) Upload(ctx context.Context, sessionID string, file io.Reader, filename string, id models.PortfolioID, name string) (*UploadResult, error) {
	if !id.IsSource() {
		return nil, fmt.Errorf("%w: %s", state.ErrInvalidTarget, id)
	}
	result, err := s.uploadService.ProcessUpload(ctx, file, filename, id, name, s.progress(sessionID))
	if err != nil {
		return nil, err
	}
	if _, err := s.Apply(ctx, sessionID, state.LoadPortfolio{Portfolio: result.Portfolio}); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *portfolioServiceImpl) LoadSample(ctx context.Context, sessionID string) (state.State, error) {
	p1, p2 := SamplePortfolios()
	if _, err := s.Apply(ctx, sessionID, state.LoadPortfolio{Portfolio: p1}); err != nil {
		return state.State{}, err
	}
	return s.Apply(ctx, sessionID, state.LoadPortfolio{Portfolio: p2})
}

func (s *portfolioServiceImpl) Clear(ctx context.Context, sessionID string) error {
	_, err := s.Apply(ctx, sessionID, state.ClearPortfolios{})
	return err
}

// Apply runs ev through the reducer and installs the result. The session's state is
// untouched when the reducer rejects the event.
func (s *portfolioServiceImpl) Apply(ctx context.Context, sessionID string, ev state.Event) (state.State, error) {
	sess := s.session(ctx, sessionID)

	sess.mu.Lock()
	prev := sess.state
	next, err := s.reducer.Reduce(prev, ev)
	if err != nil {
		sess.mu.Unlock()
		return prev, err
	}
	sess.state = next
	s.persist(ctx, sessionID, prev, next)
	sess.mu.Unlock()

	logger.FromContext(ctx).Info("Portfolio state changed", "sessionID", sessionID, "event", ev.EventName())
	s.bus.Publish(sessionID, events.PortfolioChanged, events.ChangeData{Reason: ev.EventName(), Portfolio: eventTarget(ev)})
	return next, nil
}

// RefreshPrices fetches quotes for every held ticker and applies them to the current state.
// A refresh that finishes after a newer one started is discarded.
func (s *portfolioServiceImpl) RefreshPrices(ctx context.Context, sessionID string) (*RefreshResult, error) {
	log := logger.FromContext(ctx)
	sess := s.session(ctx, sessionID)

	sess.mu.Lock()
	sess.generation++
	gen := sess.generation
	tickers := sess.state.Tickers()
	empty := sess.state.IsEmpty()
	sess.mu.Unlock()

	if empty {
		return nil, state.ErrPortfolioNotLoaded
	}

	prices, err := s.priceService.GetCurrentPrices(ctx, tickers, s.progress(sessionID))
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	found := 0
	for _, t := range tickers {
		if _, ok := prices.Lookup(t); ok {
			found++
		}
	}
	if found == 0 {
		log.Warn("Price refresh resolved nothing", "sessionID", sessionID, "tickersTotal", len(tickers), "error", err)
		return nil, ErrNoPricesResolved
	}

	sess.mu.Lock()
	if sess.generation != gen {
		sess.mu.Unlock()
		log.Info("Discarding stale price refresh", "sessionID", sessionID, "generation", gen)
		s.bus.Publish(sessionID, events.PricesRefreshed, events.RefreshData{PricesFound: found, TickersTotal: len(tickers), Stale: true})
		return nil, ErrStaleRefresh
	}
	prev := sess.state
	next, err := s.reducer.Reduce(prev, state.PriceRefresh{Prices: prices})
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	sess.state = next
	s.persist(ctx, sessionID, prev, next)
	sess.mu.Unlock()

	log.Info("Prices refreshed", "sessionID", sessionID, "pricesFound", found, "tickersTotal", len(tickers))
	s.bus.Publish(sessionID, events.PricesRefreshed, events.RefreshData{PricesFound: found, TickersTotal: len(tickers)})
	return &RefreshResult{State: next, PricesFound: found, TickersTotal: len(tickers)}, nil
}

// persist writes the sources that changed. Failures are logged and the in-memory state stays authoritative.
func (s *portfolioServiceImpl) persist(ctx context.Context, sessionID string, prev, next state.State) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range []models.PortfolioID{models.Portfolio1, models.Portfolio2} {
		before, after := prev.Get(id), next.Get(id)
		if before == after {
			continue
		}
		key := database.PortfolioKey(sessionID, id)
		var err error
		if after == nil {
			err = s.store.Delete(ctx, key)
		} else {
			err = s.store.Save(ctx, key, after)
		}
		if err != nil {
			logger.L.Error("Failed to persist portfolio", "sessionID", sessionID, "portfolioID", id, "error", err)
		}
	}
}

func (s *portfolioServiceImpl) progress(sessionID string) ProgressFunc {
	return func(fetched, total int) {
		s.bus.Publish(sessionID, events.PriceProgress, events.ProgressData{Fetched: fetched, Total: total})
	}
}

func eventTarget(ev state.Event) string {
	switch e := ev.(type) {
	case state.ManualEdit:
		return string(e.Target)
	case state.AddHolding:
		return string(e.Target)
	case state.DeleteHolding:
		return string(e.Target)
	case state.UpdateCash:
		return string(e.Target)
	case state.LoadPortfolio:
		if e.Portfolio != nil {
			return string(e.Portfolio.ID)
		}
	}
	return ""
}
