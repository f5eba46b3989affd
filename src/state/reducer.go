package state

import (
	"fmt"
	"math"
	"strings"

	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/processors"
	"github.com/username/stockfolio/src/utils"
)

// Reducer applies events to a State. It never mutates the snapshot it receives.
type Reducer struct {
	summarizer processors.Summarizer
	merger     processors.Merger
}

func NewReducer(summarizer processors.Summarizer, merger processors.Merger) *Reducer {
	return &Reducer{summarizer: summarizer, merger: merger}
}

// NewDefaultReducer wires the reducer to the stock processors.
func NewDefaultReducer(transactionLimit int) *Reducer {
	return NewReducer(processors.NewSummaryProcessor(), processors.NewMergeProcessor(transactionLimit))
}

// Reduce returns the state that results from applying ev to s.
// On error the returned state is s unchanged.
func (r *Reducer) Reduce(s State, ev Event) (State, error) {
	var (
		next State
		err  error
	)
	switch e := ev.(type) {
	case LoadPortfolio:
		next, err = r.load(s, e)
	case ClearPortfolios:
		return State{}, nil
	case PriceRefresh:
		next, err = r.refresh(s, e)
	case ManualEdit:
		next, err = r.edit(s, e)
	case AddHolding:
		next, err = r.add(s, e)
	case DeleteHolding:
		next, err = r.delete(s, e)
	case UpdateCash:
		next, err = r.updateCash(s, e)
	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
	if err != nil {
		return s, err
	}
	next.Consolidated = r.merger.Consolidate(next.Portfolio1, next.Portfolio2)
	return next, nil
}

func (r *Reducer) load(s State, e LoadPortfolio) (State, error) {
	if e.Portfolio == nil {
		return s, ErrPortfolioNotLoaded
	}
	if !e.Portfolio.ID.IsSource() {
		return s, fmt.Errorf("%w: %s", ErrInvalidTarget, e.Portfolio.ID)
	}
	return s.withSource(e.Portfolio.ID, e.Portfolio.Clone()), nil
}

func (r *Reducer) refresh(s State, e PriceRefresh) (State, error) {
	prices := e.Prices
	if prices == nil {
		prices = models.NoPrices
	}
	for _, id := range []models.PortfolioID{models.Portfolio1, models.Portfolio2} {
		src := s.Get(id)
		if src == nil {
			continue
		}
		p := src.Clone()
		for i := range p.Holdings {
			h := &p.Holdings[i]
			if info, ok := prices.Lookup(h.Ticker); ok {
				h.LTP = info.Price
				h.PriceChangePercent = info.ChangePercent
				h.HasPriceFetched = true
			} else {
				h.HasPriceFetched = h.ManuallyEdited
			}
			processors.RevalueHolding(h)
		}
		r.recompute(p)
		s = s.withSource(id, p)
	}
	return s, nil
}

func (r *Reducer) edit(s State, e ManualEdit) (State, error) {
	if err := e.Edit.validate(); err != nil {
		return s, err
	}
	return r.forEachHolder(s, e.Target, e.Ticker, func(p *models.Portfolio, i int) {
		h := &p.Holdings[i]
		if e.Edit.LTP != nil {
			h.LTP = *e.Edit.LTP
		}
		if e.Edit.Qty != nil {
			h.Qty = *e.Edit.Qty
		}
		switch {
		case e.Edit.BuyValue != nil:
			h.BuyValue = *e.Edit.BuyValue
		case h.Qty == 0:
			// Nothing is held, so nothing is invested.
			h.BuyValue = 0
		}
		processors.RevalueHolding(h)
		h.ManuallyEdited = true
		h.HasPriceFetched = true
		r.recompute(p)
	})
}

func (r *Reducer) delete(s State, e DeleteHolding) (State, error) {
	return r.forEachHolder(s, e.Target, e.Ticker, func(p *models.Portfolio, i int) {
		p.Holdings = append(p.Holdings[:i], p.Holdings[i+1:]...)
		r.recompute(p)
	})
}

func (r *Reducer) add(s State, e AddHolding) (State, error) {
	if !e.Target.IsSource() {
		return s, fmt.Errorf("%w: %s", ErrInvalidTarget, e.Target)
	}
	src := s.Get(e.Target)
	if src == nil {
		return s, ErrPortfolioNotLoaded
	}
	nh := e.Holding
	ticker := strings.ToUpper(strings.TrimSpace(nh.Ticker))
	if ticker == "" {
		return s, fmt.Errorf("%w: ticker is required", ErrInvalidValue)
	}
	if !validAmount(nh.Qty) || !validAmount(nh.AvgBuyPrice) || !validAmount(nh.LTP) {
		return s, ErrInvalidValue
	}
	if src.HoldingIndex(ticker) >= 0 {
		return s, fmt.Errorf("%w: %s", ErrDuplicateTicker, ticker)
	}

	name := strings.TrimSpace(nh.Name)
	if name == "" {
		name = ticker
	}
	h := models.Holding{
		Ticker:          ticker,
		Name:            name,
		Qty:             nh.Qty,
		AvgBuyPrice:     nh.AvgBuyPrice,
		LTP:             nh.LTP,
		BuyValue:        nh.Qty * nh.AvgBuyPrice,
		HasPriceFetched: true,
		ManuallyEdited:  true,
	}
	h.PresentValue = h.Qty * h.LTP
	h.PnLPercent = utils.SafePercent(h.PresentValue-h.BuyValue, h.BuyValue)

	p := src.Clone()
	p.Holdings = append(p.Holdings, h)
	r.recompute(p)
	processors.SortByAllocation(p.Holdings)
	return s.withSource(e.Target, p), nil
}

func (r *Reducer) updateCash(s State, e UpdateCash) (State, error) {
	if !e.Target.IsSource() {
		return s, fmt.Errorf("%w: %s", ErrInvalidTarget, e.Target)
	}
	src := s.Get(e.Target)
	if src == nil {
		return s, ErrPortfolioNotLoaded
	}
	if math.IsNaN(e.Amount) || math.IsInf(e.Amount, 0) {
		return s, ErrInvalidValue
	}
	p := src.Clone()
	p.CashPosition.CashPosition = e.Amount
	return s.withSource(e.Target, p), nil
}

// forEachHolder applies fn to a clone of every source the event targets that holds ticker.
// The consolidated view fans out to both sources.
func (r *Reducer) forEachHolder(s State, target models.PortfolioID, ticker string, fn func(p *models.Portfolio, i int)) (State, error) {
	var ids []models.PortfolioID
	switch {
	case target == models.Consolidated:
		ids = []models.PortfolioID{models.Portfolio1, models.Portfolio2}
	case target.IsSource():
		if s.Get(target) == nil {
			return s, ErrPortfolioNotLoaded
		}
		ids = []models.PortfolioID{target}
	default:
		return s, fmt.Errorf("%w: %s", ErrInvalidTarget, target)
	}

	touched := false
	for _, id := range ids {
		src := s.Get(id)
		i := src.HoldingIndex(ticker)
		if i < 0 {
			continue
		}
		p := src.Clone()
		fn(p, i)
		s = s.withSource(id, p)
		touched = true
	}
	if !touched {
		return s, fmt.Errorf("%w: %s", ErrHoldingNotFound, ticker)
	}
	return s, nil
}

// recompute refreshes allocations and the summary after holdings changed.
// Realised P&L is carried over since it depends on trade history alone.
func (r *Reducer) recompute(p *models.Portfolio) {
	processors.NormalizeAllocations(p.Holdings)
	p.Summary = r.summarizer.Summarize(p.Holdings, p.Summary.RealisedPnL)
}

func (e HoldingEdit) validate() error {
	for _, v := range []*float64{e.LTP, e.Qty, e.BuyValue} {
		if v != nil && !validAmount(*v) {
			return ErrInvalidValue
		}
	}
	return nil
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
