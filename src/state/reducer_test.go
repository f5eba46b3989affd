package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/processors"
)

func ptr(v float64) *float64 { return &v }

func holding(ticker string, qty, avg, ltp float64) models.Holding {
	h := models.Holding{Ticker: ticker, Name: ticker, Qty: qty, AvgBuyPrice: avg, LTP: ltp, BuyValue: qty * avg, HasPriceFetched: true}
	processors.RevalueHolding(&h)
	return h
}

func portfolio(id models.PortfolioID, holdings ...models.Holding) *models.Portfolio {
	p := &models.Portfolio{ID: id, Name: string(id), Holdings: holdings}
	processors.NormalizeAllocations(p.Holdings)
	processors.SortByAllocation(p.Holdings)
	p.Summary = processors.NewSummaryProcessor().Summarize(p.Holdings, 0)
	return p
}

func loaded(t *testing.T, r *Reducer, ps ...*models.Portfolio) State {
	t.Helper()
	var s State
	for _, p := range ps {
		var err error
		s, err = r.Reduce(s, LoadPortfolio{Portfolio: p})
		require.NoError(t, err)
	}
	return s
}

func assertAllocationsSumTo100(t *testing.T, p *models.Portfolio) {
	t.Helper()
	if p == nil || p.Summary.Current <= 0 {
		return
	}
	var sum float64
	for _, h := range p.Holdings {
		sum += h.AllocationPercent
	}
	assert.InDelta(t, 100, sum, 1e-6, "allocations of %s", p.ID)
}

func assertFinite(t *testing.T, vs ...float64) {
	t.Helper()
	for _, v := range vs {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "value %v is not finite", v)
	}
}

func TestReduce_LoadBuildsConsolidated(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r, portfolio(models.Portfolio1, holding("Y", 50, 20, 25)))

	require.NotNil(t, s.Consolidated)
	assert.Equal(t, models.Consolidated, s.Consolidated.ID)
	assert.Equal(t, models.ConsolidatedName, s.Consolidated.Name)
	assert.Nil(t, s.Portfolio2)

	s = loaded(t, r, s.Portfolio1, portfolio(models.Portfolio2, holding("Y", 50, 20, 25)))
	require.Len(t, s.Consolidated.Holdings, 1)
	y := s.Consolidated.Holdings[0]
	assert.InDelta(t, 100, y.Qty, 1e-9)
	assert.InDelta(t, 20, y.AvgBuyPrice, 1e-9)
	assert.InDelta(t, 2500, y.PresentValue, 1e-9)
	assert.InDelta(t, 25, y.PnLPercent, 1e-9)
}

func TestReduce_LoadRejectsConsolidatedID(t *testing.T) {
	r := NewDefaultReducer(10)
	_, err := r.Reduce(State{}, LoadPortfolio{Portfolio: portfolio(models.Consolidated)})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = r.Reduce(State{}, LoadPortfolio{})
	assert.ErrorIs(t, err, ErrPortfolioNotLoaded)
}

func TestReduce_ManualEditQtyZeroGuardsPercents(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r, portfolio(models.Portfolio1, holding("X", 10, 5, 6)))

	next, err := r.Reduce(s, ManualEdit{Target: models.Portfolio1, Ticker: "X", Edit: HoldingEdit{Qty: ptr(0)}})
	require.NoError(t, err)

	p := next.Portfolio1
	assert.Zero(t, p.Holdings[0].BuyValue)
	assert.Zero(t, p.Summary.Invested)
	assert.Zero(t, p.Summary.Current)
	assertFinite(t, p.Summary.UnrealisedPnLPercent, p.Summary.NetPnLPercent, p.Summary.RealisedPnLPercent)
	h := p.Holdings[0]
	assertFinite(t, h.PnLPercent, h.AllocationPercent, h.AvgBuyPrice)
	assert.Zero(t, h.AllocationPercent)
	assert.True(t, h.ManuallyEdited)
	assert.True(t, h.HasPriceFetched)
}

func TestReduce_ManualEditQtyZeroKeepsExplicitBuyValue(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r, portfolio(models.Portfolio1, holding("X", 100, 10, 12), holding("Y", 10, 10, 10)))

	next, err := r.Reduce(s, ManualEdit{Target: models.Portfolio1, Ticker: "X", Edit: HoldingEdit{Qty: ptr(0), BuyValue: ptr(250)}})
	require.NoError(t, err)

	x := next.Portfolio1.Holdings[next.Portfolio1.HoldingIndex("X")]
	assert.InDelta(t, 250, x.BuyValue, 1e-9)
	assert.Zero(t, x.PresentValue)
	assert.InDelta(t, 350, next.Portfolio1.Summary.Invested, 1e-9)
	assert.InDelta(t, 100, next.Portfolio1.Summary.Current, 1e-9)
	assertFinite(t, x.PnLPercent, x.AvgBuyPrice, next.Portfolio1.Summary.UnrealisedPnLPercent)
}

func TestReduce_ManualEditRevaluesHolding(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r, portfolio(models.Portfolio1, holding("A", 10, 10, 12), holding("B", 5, 20, 20)))

	next, err := r.Reduce(s, ManualEdit{Target: models.Portfolio1, Ticker: "A", Edit: HoldingEdit{LTP: ptr(15), Qty: ptr(20)}})
	require.NoError(t, err)

	i := next.Portfolio1.HoldingIndex("A")
	require.GreaterOrEqual(t, i, 0)
	a := next.Portfolio1.Holdings[i]
	assert.InDelta(t, 300, a.PresentValue, 1e-9)
	assert.InDelta(t, 5, a.AvgBuyPrice, 1e-9, "buy value stays authoritative")
	assert.InDelta(t, 200, a.PnLPercent, 1e-9)
	assertAllocationsSumTo100(t, next.Portfolio1)
	assert.InDelta(t, 400, next.Portfolio1.Summary.Current, 1e-9)

	// the input snapshot is untouched
	orig := s.Portfolio1.Holdings[s.Portfolio1.HoldingIndex("A")]
	assert.InDelta(t, 12, orig.LTP, 1e-9)
	assert.False(t, orig.ManuallyEdited)
}

func TestReduce_ManualEditRejectsNegative(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r, portfolio(models.Portfolio1, holding("A", 10, 10, 12)))

	next, err := r.Reduce(s, ManualEdit{Target: models.Portfolio1, Ticker: "A", Edit: HoldingEdit{LTP: ptr(-1)}})
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Equal(t, s, next)
}

func TestReduce_ManualEditUnknownTicker(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r, portfolio(models.Portfolio1, holding("A", 10, 10, 12)))

	_, err := r.Reduce(s, ManualEdit{Target: models.Portfolio1, Ticker: "ZZZ", Edit: HoldingEdit{LTP: ptr(1)}})
	assert.ErrorIs(t, err, ErrHoldingNotFound)

	_, err = r.Reduce(s, ManualEdit{Target: models.Portfolio2, Ticker: "A", Edit: HoldingEdit{LTP: ptr(1)}})
	assert.ErrorIs(t, err, ErrPortfolioNotLoaded)
}

func TestReduce_AddDuplicateTickerLeavesStateUnchanged(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r, portfolio(models.Portfolio1, holding("X", 10, 5, 6)))
	add := AddHolding{Target: models.Portfolio1, Holding: NewHolding{Ticker: "x", Qty: 1, AvgBuyPrice: 1, LTP: 1}}

	first, err := r.Reduce(s, add)
	assert.ErrorIs(t, err, ErrDuplicateTicker)
	second, err := r.Reduce(first, add)
	assert.ErrorIs(t, err, ErrDuplicateTicker)

	assert.Equal(t, s, first)
	assert.Equal(t, first, second)
}

func TestReduce_AddHolding(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r, portfolio(models.Portfolio1, holding("X", 10, 5, 6)))

	next, err := r.Reduce(s, AddHolding{Target: models.Portfolio1, Holding: NewHolding{Ticker: " nvda ", Name: "NVIDIA", Qty: 10, AvgBuyPrice: 100, LTP: 120}})
	require.NoError(t, err)

	p := next.Portfolio1
	require.Len(t, p.Holdings, 2)
	h := p.Holdings[0]
	assert.Equal(t, "NVDA", h.Ticker, "largest allocation sorts first")
	assert.InDelta(t, 1000, h.BuyValue, 1e-9)
	assert.InDelta(t, 1200, h.PresentValue, 1e-9)
	assert.InDelta(t, 20, h.PnLPercent, 1e-9)
	assert.Zero(t, h.PriceChangePercent)
	assert.True(t, h.ManuallyEdited)
	assert.True(t, h.HasPriceFetched)
	assertAllocationsSumTo100(t, p)
	assert.InDelta(t, 1050, p.Summary.Invested, 1e-9)

	require.NotNil(t, next.Consolidated)
	assert.GreaterOrEqual(t, next.Consolidated.HoldingIndex("NVDA"), 0)
}

func TestReduce_AddHoldingRejectsConsolidatedTarget(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r, portfolio(models.Portfolio1, holding("X", 10, 5, 6)))

	_, err := r.Reduce(s, AddHolding{Target: models.Consolidated, Holding: NewHolding{Ticker: "Y", Qty: 1}})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = r.Reduce(s, AddHolding{Target: models.Portfolio1, Holding: NewHolding{Ticker: "  "}})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestReduce_PriceRefreshIsIdempotent(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r,
		portfolio(models.Portfolio1, holding("A", 10, 10, 10), holding("B", 5, 20, 20)),
		portfolio(models.Portfolio2, holding("A", 1, 10, 10)),
	)
	prices := models.PriceMap{"A": {Price: 15, ChangePercent: 2.5}}

	once, err := r.Reduce(s, PriceRefresh{Prices: prices})
	require.NoError(t, err)
	twice, err := r.Reduce(once, PriceRefresh{Prices: prices})
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	p1 := once.Portfolio1
	a := p1.Holdings[p1.HoldingIndex("A")]
	assert.InDelta(t, 15, a.LTP, 1e-9)
	assert.InDelta(t, 2.5, a.PriceChangePercent, 1e-9)
	assert.True(t, a.HasPriceFetched)

	b := p1.Holdings[p1.HoldingIndex("B")]
	assert.InDelta(t, 20, b.LTP, 1e-9, "unresolved ticker keeps its price")
	assert.False(t, b.HasPriceFetched)

	assertAllocationsSumTo100(t, once.Portfolio1)
	assertAllocationsSumTo100(t, once.Portfolio2)
	assertAllocationsSumTo100(t, once.Consolidated)
	assert.InDelta(t, 165, once.Consolidated.Holdings[0].PresentValue, 1e-9)
}

func TestReduce_PriceRefreshKeepsManualFlag(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r, portfolio(models.Portfolio1, holding("A", 10, 10, 10)))
	s, err := r.Reduce(s, ManualEdit{Target: models.Portfolio1, Ticker: "A", Edit: HoldingEdit{LTP: ptr(11)}})
	require.NoError(t, err)

	s, err = r.Reduce(s, PriceRefresh{Prices: models.PriceMap{}})
	require.NoError(t, err)
	a := s.Portfolio1.Holdings[0]
	assert.True(t, a.HasPriceFetched)
	assert.InDelta(t, 11, a.LTP, 1e-9)
}

func TestReduce_PriceRefreshPreservesRealised(t *testing.T) {
	r := NewDefaultReducer(10)
	p := portfolio(models.Portfolio1, holding("A", 10, 10, 10))
	p.Summary = processors.BuildSummary(p.Summary.Invested, p.Summary.Current, 42)
	s := loaded(t, r, p)

	next, err := r.Reduce(s, PriceRefresh{Prices: models.PriceMap{"A": {Price: 20}}})
	require.NoError(t, err)
	assert.InDelta(t, 42, next.Portfolio1.Summary.RealisedPnL, 1e-9)
	assert.InDelta(t, 100, next.Portfolio1.Summary.UnrealisedPnL, 1e-9)
	assert.InDelta(t, 142, next.Portfolio1.Summary.NetPnL, 1e-9)
}

func TestReduce_DeleteFromConsolidatedFansOut(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r,
		portfolio(models.Portfolio1, holding("A", 10, 10, 10), holding("B", 5, 20, 20)),
		portfolio(models.Portfolio2, holding("A", 1, 10, 10), holding("C", 2, 5, 5)),
	)

	next, err := r.Reduce(s, DeleteHolding{Target: models.Consolidated, Ticker: "A"})
	require.NoError(t, err)

	assert.Equal(t, -1, next.Portfolio1.HoldingIndex("A"))
	assert.Equal(t, -1, next.Portfolio2.HoldingIndex("A"))
	assert.Equal(t, -1, next.Consolidated.HoldingIndex("A"))
	assert.ElementsMatch(t, []string{"B", "C"}, next.Consolidated.Tickers())
	assertAllocationsSumTo100(t, next.Portfolio1)
	assertAllocationsSumTo100(t, next.Portfolio2)
	assertAllocationsSumTo100(t, next.Consolidated)

	_, err = r.Reduce(next, DeleteHolding{Target: models.Consolidated, Ticker: "A"})
	assert.ErrorIs(t, err, ErrHoldingNotFound)
}

func TestReduce_EditFromConsolidatedTouchesOnlyHolders(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r,
		portfolio(models.Portfolio1, holding("A", 10, 10, 10)),
		portfolio(models.Portfolio2, holding("C", 2, 5, 5)),
	)

	next, err := r.Reduce(s, ManualEdit{Target: models.Consolidated, Ticker: "A", Edit: HoldingEdit{LTP: ptr(30)}})
	require.NoError(t, err)

	assert.InDelta(t, 30, next.Portfolio1.Holdings[0].LTP, 1e-9)
	assert.Same(t, s.Portfolio2, next.Portfolio2)
	a := next.Consolidated.Holdings[next.Consolidated.HoldingIndex("A")]
	assert.InDelta(t, 300, a.PresentValue, 1e-9)
}

func TestReduce_UpdateCash(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r,
		portfolio(models.Portfolio1, holding("A", 10, 10, 10)),
		portfolio(models.Portfolio2, holding("C", 2, 5, 5)),
	)

	s, err := r.Reduce(s, UpdateCash{Target: models.Portfolio1, Amount: 5000})
	require.NoError(t, err)
	s, err = r.Reduce(s, UpdateCash{Target: models.Portfolio2, Amount: 3000})
	require.NoError(t, err)
	assert.InDelta(t, 8000, s.Consolidated.CashPosition.CashPosition, 1e-9)

	_, err = r.Reduce(s, UpdateCash{Target: models.Consolidated, Amount: 1})
	assert.ErrorIs(t, err, ErrInvalidTarget)
	_, err = r.Reduce(s, UpdateCash{Target: models.Portfolio1, Amount: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestReduce_Clear(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r, portfolio(models.Portfolio1, holding("A", 10, 10, 10)))

	next, err := r.Reduce(s, ClearPortfolios{})
	require.NoError(t, err)
	assert.True(t, next.IsEmpty())
	assert.Nil(t, next.Consolidated)

	next, err = r.Reduce(next, PriceRefresh{Prices: models.PriceMap{"A": {Price: 1}}})
	require.NoError(t, err)
	assert.True(t, next.IsEmpty())
}

func TestReduce_AllocationInvariantAcrossEvents(t *testing.T) {
	r := NewDefaultReducer(10)
	s := loaded(t, r,
		portfolio(models.Portfolio1, holding("A", 10, 10, 10), holding("B", 5, 20, 22)),
		portfolio(models.Portfolio2, holding("A", 3, 9, 10), holding("C", 2, 5, 7)),
	)

	events := []Event{
		PriceRefresh{Prices: models.PriceMap{"A": {Price: 12}, "C": {Price: 8}}},
		ManualEdit{Target: models.Portfolio2, Ticker: "C", Edit: HoldingEdit{Qty: ptr(40)}},
		AddHolding{Target: models.Portfolio1, Holding: NewHolding{Ticker: "D", Qty: 3, AvgBuyPrice: 50, LTP: 55}},
		DeleteHolding{Target: models.Portfolio1, Ticker: "B"},
		UpdateCash{Target: models.Portfolio2, Amount: 100},
	}
	for _, ev := range events {
		var err error
		s, err = r.Reduce(s, ev)
		require.NoError(t, err, ev.EventName())
		assertAllocationsSumTo100(t, s.Portfolio1)
		assertAllocationsSumTo100(t, s.Portfolio2)
		assertAllocationsSumTo100(t, s.Consolidated)
	}
}

func TestState_Tickers(t *testing.T) {
	s := State{
		Portfolio1: portfolio(models.Portfolio1, holding("A", 1, 1, 1), holding("B", 1, 1, 2)),
		Portfolio2: portfolio(models.Portfolio2, holding("A", 1, 1, 1), holding("C", 1, 1, 3)),
	}
	assert.ElementsMatch(t, []string{"A", "B", "C"}, s.Tickers())
	assert.Nil(t, State{}.Get("bogus"))
}
