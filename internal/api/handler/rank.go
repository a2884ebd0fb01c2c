package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/service"
)

type RankHandler struct {
	svc *service.RankService
}

func NewRankHandler(svc *service.RankService) *RankHandler {
	return &RankHandler{svc: svc}
}

// Table returns the rank bands ordered by minimum balance. Public.
func (h *RankHandler) Table(w http.ResponseWriter, r *http.Request) {
	table, err := h.svc.Table(r.Context())
	if err != nil {
		zap.L().Error("load rank table failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "rank/read-failed", "Failed to load rank table")
		return
	}
	RespondJSON(w, http.StatusOK, table.Bands())
}

// UpsertBand creates or replaces a rank band. Admin only; the whole table is
// re-validated before anything persists.
func (h *RankHandler) UpsertBand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID             *uuid.UUID       `json:"id"`
		Name           string           `json:"name"`
		MinBalance     decimal.Decimal  `json:"min_balance"`
		MaxBalance     *decimal.Decimal `json:"max_balance"`
		DailyProfitPct decimal.Decimal  `json:"daily_profit_pct"`
		TradeQuota     int              `json:"trade_quota"`
		Color          string           `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	upsert := service.UpsertBandRequest{
		Name:           req.Name,
		MinBalance:     req.MinBalance,
		MaxBalance:     req.MaxBalance,
		DailyProfitPct: req.DailyProfitPct,
		TradeQuota:     req.TradeQuota,
		Color:          req.Color,
	}
	if req.ID != nil {
		upsert.ID = *req.ID
	}

	band, err := h.svc.UpsertBand(r.Context(), upsert)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("upsert rank band failed", zap.Error(err))
		RespondError(w, r, http.StatusUnprocessableEntity, "rank/invalid-band", err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, band)
}
