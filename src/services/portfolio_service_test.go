package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/username/stockfolio/src/database"
	"github.com/username/stockfolio/src/events"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/processors"
	"github.com/username/stockfolio/src/state"
)

type fixture struct {
	svc    PortfolioService
	prices *MockPriceService
	store  *database.MemoryStore
	bus    *events.Bus
}

func newFixture() *fixture {
	prices := new(MockPriceService)
	store := database.NewMemoryStore()
	bus := events.NewBus(16)
	upload := NewUploadService(prices, processors.NewPortfolioProcessor(10))
	svc := NewPortfolioService(upload, prices, state.NewDefaultReducer(10), store, bus, time.Hour)
	return &fixture{svc: svc, prices: prices, store: store, bus: bus}
}

func drain(ch <-chan events.Event) []events.EventType {
	var types []events.EventType
	for {
		select {
		case ev := <-ch:
			types = append(types, ev.Type)
		default:
			return types
		}
	}
}

func TestPortfolioService_UploadStoresAndPublishes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.prices.On("GetCurrentPrices", mock.Anything, mock.Anything, mock.Anything).
		Return(models.PriceMap{"AAPL": {Price: 150}, "MSFT": {Price: 210}}, nil)
	ch, cancel := f.bus.Subscribe("s1")
	defer cancel()

	result, err := f.svc.Upload(ctx, "s1", strings.NewReader(tradesCSV), "t.csv", models.Portfolio1, "Main")
	require.NoError(t, err)
	assert.Equal(t, 2, result.PricesFound)

	st, err := f.svc.GetState(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, st.Portfolio1)
	require.NotNil(t, st.Consolidated)
	assert.Equal(t, models.ConsolidatedName, st.Consolidated.Name)

	stored, err := f.store.Load(ctx, database.PortfolioKey("s1", models.Portfolio1))
	require.NoError(t, err)
	assert.Equal(t, "Main", stored.Name)

	assert.Equal(t, []events.EventType{events.PriceProgress, events.PortfolioChanged}, drain(ch))
}

func TestPortfolioService_UploadRejectsConsolidated(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Upload(context.Background(), "s1", strings.NewReader(tradesCSV), "t.csv", models.Consolidated, "")
	assert.ErrorIs(t, err, state.ErrInvalidTarget)
}

func TestPortfolioService_RestoresFromStore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p1, _ := SamplePortfolios()
	require.NoError(t, f.store.Save(ctx, database.PortfolioKey("s2", models.Portfolio1), p1))

	st, err := f.svc.GetState(ctx, "s2")
	require.NoError(t, err)
	require.NotNil(t, st.Portfolio1)
	assert.Nil(t, st.Portfolio2)
	assert.Equal(t, p1.Tickers(), st.Consolidated.Tickers())
}

// slowStore holds loads of one session until released.
type slowStore struct {
	*database.MemoryStore
	slowSession string
	entered     chan struct{}
	release     chan struct{}
}

func (s *slowStore) Load(ctx context.Context, key string) (*models.Portfolio, error) {
	if id, _ := database.SessionFromKey(key); id == s.slowSession {
		s.entered <- struct{}{}
		<-s.release
	}
	return s.MemoryStore.Load(ctx, key)
}

func TestPortfolioService_RestoreDoesNotBlockOtherSessions(t *testing.T) {
	ctx := context.Background()
	store := &slowStore{
		MemoryStore: database.NewMemoryStore(),
		slowSession: "slow",
		entered:     make(chan struct{}, 2),
		release:     make(chan struct{}),
	}
	p1, _ := SamplePortfolios()
	require.NoError(t, store.Save(ctx, database.PortfolioKey("slow", models.Portfolio1), p1))
	require.NoError(t, store.Save(ctx, database.PortfolioKey("fast", models.Portfolio1), p1))

	prices := new(MockPriceService)
	svc := NewPortfolioService(NewUploadService(prices, processors.NewPortfolioProcessor(10)), prices,
		state.NewDefaultReducer(10), store, events.NewBus(16), time.Hour)

	slowDone := make(chan state.State)
	go func() {
		st, _ := svc.GetState(ctx, "slow")
		slowDone <- st
	}()
	<-store.entered

	fastDone := make(chan state.State)
	go func() {
		st, _ := svc.GetState(ctx, "fast")
		fastDone <- st
	}()
	select {
	case st := <-fastDone:
		assert.NotNil(t, st.Portfolio1)
	case <-time.After(2 * time.Second):
		t.Fatal("restoring one session blocked another")
	}

	close(store.release)
	st := <-slowDone
	assert.NotNil(t, st.Portfolio1)

	again, err := svc.GetState(ctx, "slow")
	require.NoError(t, err)
	assert.Same(t, st.Portfolio1, again.Portfolio1)
}

func TestPortfolioService_ApplyRejectedEventKeepsState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	before, err := f.svc.LoadSample(ctx, "s1")
	require.NoError(t, err)

	after, err := f.svc.Apply(ctx, "s1", state.AddHolding{Target: models.Portfolio1, Holding: state.NewHolding{Ticker: "META", Qty: 1}})
	assert.ErrorIs(t, err, state.ErrDuplicateTicker)
	assert.Equal(t, before, after)

	current, _ := f.svc.GetState(ctx, "s1")
	assert.Equal(t, before, current)
}

func TestPortfolioService_SampleData(t *testing.T) {
	f := newFixture()
	st, err := f.svc.LoadSample(context.Background(), "s1")
	require.NoError(t, err)

	assert.Len(t, st.Portfolio1.Holdings, 7)
	assert.Len(t, st.Portfolio2.Holdings, 12)
	assert.InDelta(t, 8000, st.Consolidated.CashPosition.CashPosition, 1e-9)
	assert.Len(t, st.Consolidated.Holdings, 12)
	assert.Len(t, st.Consolidated.Transactions, 5)
	assert.Equal(t, "IREN", st.Consolidated.Transactions[0].Ticker)
}

func TestPortfolioService_RefreshPrices(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.LoadSample(ctx, "s1")
	require.NoError(t, err)
	f.prices.On("GetCurrentPrices", mock.Anything, mock.Anything, mock.Anything).
		Return(models.PriceMap{"NVDA": {Price: 200, ChangePercent: 1.5}}, nil)

	res, err := f.svc.RefreshPrices(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.PricesFound)
	assert.Equal(t, 12, res.TickersTotal)

	nvda := res.State.Consolidated.Holdings[res.State.Consolidated.HoldingIndex("NVDA")]
	assert.InDelta(t, 200, nvda.LTP, 1e-9)

	meta := res.State.Portfolio1.Holdings[res.State.Portfolio1.HoldingIndex("META")]
	assert.InDelta(t, 647.51, meta.LTP, 1e-9)
	assert.False(t, meta.HasPriceFetched)
}

func TestPortfolioService_RefreshNothingResolved(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.RefreshPrices(ctx, "s1")
	assert.ErrorIs(t, err, state.ErrPortfolioNotLoaded)

	before, err := f.svc.LoadSample(ctx, "s1")
	require.NoError(t, err)
	f.prices.On("GetCurrentPrices", mock.Anything, mock.Anything, mock.Anything).Return(models.PriceMap{}, nil)

	_, err = f.svc.RefreshPrices(ctx, "s1")
	assert.ErrorIs(t, err, ErrNoPricesResolved)
	after, _ := f.svc.GetState(ctx, "s1")
	assert.Equal(t, before, after)
}

// blockingPrices lets a test hold one refresh in flight while another completes.
type blockingPrices struct {
	release chan struct{}
	calls   chan struct{}
}

func (b *blockingPrices) GetCurrentPrices(ctx context.Context, tickers []string, onProgress ProgressFunc) (models.PriceMap, error) {
	b.calls <- struct{}{}
	<-b.release
	return models.PriceMap{"NVDA": {Price: 1}}, nil
}

func TestPortfolioService_StaleRefreshDiscarded(t *testing.T) {
	ctx := context.Background()
	slow := &blockingPrices{release: make(chan struct{}), calls: make(chan struct{}, 2)}
	store := database.NewMemoryStore()
	bus := events.NewBus(16)
	svc := NewPortfolioService(NewUploadService(slow, processors.NewPortfolioProcessor(10)), slow, state.NewDefaultReducer(10), store, bus, time.Hour)
	_, err := svc.LoadSample(ctx, "s1")
	require.NoError(t, err)

	first := make(chan error, 1)
	go func() {
		_, err := svc.RefreshPrices(ctx, "s1")
		first <- err
	}()
	<-slow.calls

	second := make(chan error, 1)
	go func() {
		_, err := svc.RefreshPrices(ctx, "s1")
		second <- err
	}()
	<-slow.calls

	slow.release <- struct{}{}
	slow.release <- struct{}{}

	errs := []error{<-first, <-second}
	assert.Contains(t, errs, ErrStaleRefresh)
	assert.Contains(t, errs, error(nil))
}

func TestPortfolioService_ClearRemovesStoredPortfolios(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, err := f.svc.LoadSample(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(ctx, "s1"))

	st, _ := f.svc.GetState(ctx, "s1")
	assert.True(t, st.IsEmpty())
	sessions, err := f.store.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
