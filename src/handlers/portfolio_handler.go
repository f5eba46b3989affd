package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/stockfolio/src/logger"
	"github.com/username/stockfolio/src/models"
	"github.com/username/stockfolio/src/security/validation"
	"github.com/username/stockfolio/src/services"
	"github.com/username/stockfolio/src/state"
	"github.com/username/stockfolio/src/utils"
)

type PortfolioHandler struct {
	portfolioService services.PortfolioService
}

func NewPortfolioHandler(portfolioService services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

func (h *PortfolioHandler) RegisterRoutes(r chi.Router) {
	r.Route("/portfolios", func(r chi.Router) {
		r.Get("/", h.HandleGetPortfolios)
		r.Delete("/", h.HandleClear)
		r.Post("/refresh", h.HandleRefreshPrices)
		r.Post("/sample", h.HandleLoadSample)
		r.Route("/{view}", func(r chi.Router) {
			r.Get("/", h.HandleGetPortfolio)
			r.Post("/holdings", h.HandleAddHolding)
			r.Patch("/holdings/{ticker}", h.HandleEditHolding)
			r.Delete("/holdings/{ticker}", h.HandleDeleteHolding)
			r.Put("/cash", h.HandleUpdateCash)
		})
	})
}

type updateCashRequest struct {
	CashPosition *float64 `json:"cashPosition"`
}

// HandleGetPortfolios returns all three views, honouring If-None-Match.
func (h *PortfolioHandler) HandleGetPortfolios(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	st, err := h.portfolioService.GetState(r.Context(), sessionID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendWithETag(w, r, st)
}

func (h *PortfolioHandler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	view, ok := parseView(w, r)
	if !ok {
		return
	}
	st, err := h.portfolioService.GetState(r.Context(), sessionID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	p := st.Get(view)
	if p == nil {
		sendServiceError(w, r, fmt.Errorf("%w: %s", state.ErrPortfolioNotLoaded, view))
		return
	}
	sendWithETag(w, r, p)
}

func (h *PortfolioHandler) HandleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := h.portfolioService.RefreshPrices(r.Context(), sessionID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, res, http.StatusOK)
}

func (h *PortfolioHandler) HandleEditHolding(w http.ResponseWriter, r *http.Request) {
	view, ok := parseView(w, r)
	if !ok {
		return
	}
	var edit state.HoldingEdit
	if !decodeBody(w, r, &edit) {
		return
	}
	if edit.LTP == nil && edit.Qty == nil && edit.BuyValue == nil {
		utils.SendJSONError(w, "at least one of ltp, qty or buyValue is required", http.StatusBadRequest)
		return
	}
	h.apply(w, r, state.ManualEdit{Target: view, Ticker: tickerParam(r), Edit: edit})
}

func (h *PortfolioHandler) HandleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	view, ok := parseView(w, r)
	if !ok {
		return
	}
	h.apply(w, r, state.DeleteHolding{Target: view, Ticker: tickerParam(r)})
}

func (h *PortfolioHandler) HandleAddHolding(w http.ResponseWriter, r *http.Request) {
	view, ok := parseView(w, r)
	if !ok {
		return
	}
	var nh state.NewHolding
	if !decodeBody(w, r, &nh) {
		return
	}
	nh.Ticker = utils.CleanTicker(nh.Ticker)
	nh.Name = validation.SanitizeName(nh.Name)
	h.apply(w, r, state.AddHolding{Target: view, Holding: nh})
}

func (h *PortfolioHandler) HandleUpdateCash(w http.ResponseWriter, r *http.Request) {
	view, ok := parseView(w, r)
	if !ok {
		return
	}
	var req updateCashRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CashPosition == nil {
		utils.SendJSONError(w, "cashPosition is required", http.StatusBadRequest)
		return
	}
	h.apply(w, r, state.UpdateCash{Target: view, Amount: *req.CashPosition})
}

func (h *PortfolioHandler) HandleLoadSample(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	st, err := h.portfolioService.LoadSample(r.Context(), sessionID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, st, http.StatusOK)
}

func (h *PortfolioHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.portfolioService.Clear(r.Context(), sessionID); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PortfolioHandler) apply(w http.ResponseWriter, r *http.Request, ev state.Event) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	st, err := h.portfolioService.Apply(r.Context(), sessionID, ev)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, st, http.StatusOK)
}

func (h *PortfolioHandler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, ok := GetSessionIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "session required", http.StatusUnauthorized)
	}
	return sessionID, ok
}

func parseView(w http.ResponseWriter, r *http.Request) (models.PortfolioID, bool) {
	raw := chi.URLParam(r, "view")
	view, ok := models.ParsePortfolioID(raw)
	if !ok {
		utils.SendJSONError(w, fmt.Sprintf("unknown portfolio %q", raw), http.StatusNotFound)
	}
	return view, ok
}

func tickerParam(r *http.Request) string {
	return utils.CleanTicker(chi.URLParam(r, "ticker"))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// sendWithETag writes data with a content hash ETag, answering 304 when the client already has it.
func sendWithETag(w http.ResponseWriter, r *http.Request, data interface{}) {
	w.Header().Set("Cache-Control", "no-cache, private")

	currentETag, err := utils.GenerateETag(data)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Proceeding without ETag check due to ETag generation error", "error", err)
	} else {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		if utils.ETagMatches(r, quotedETag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	utils.SendJSON(w, data, http.StatusOK)
}
