package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/service"
)

type TradeHandler struct {
	svc *service.TradeService
}

func NewTradeHandler(svc *service.TradeService) *TradeHandler {
	return &TradeHandler{svc: svc}
}

// Open starts a new copy trade for the authenticated account.
func (h *TradeHandler) Open(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	trade, err := h.svc.Open(r.Context(), actorID)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("open trade failed", zap.Error(err), zap.String("account_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "trade/open-failed", "Failed to open trade")
		return
	}

	RespondJSON(w, http.StatusCreated, trade)
}

func (h *TradeHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	tradeID, ok := pathUUID(r, w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	trade, err := h.svc.Get(r.Context(), tradeID)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("get trade failed", zap.Error(err), zap.String("trade_id", tradeID.String()))
		RespondError(w, r, http.StatusInternalServerError, "trade/read-failed", "Failed to get trade")
		return
	}
	if !isAdmin && trade.AccountID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	RespondJSON(w, http.StatusOK, trade)
}

func (h *TradeHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	accountID, ok := pathUUID(r, w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if !isAdmin && accountID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	page, pageSize := pageParams(r)
	trades, err := h.svc.ListByAccount(r.Context(), accountID, page, pageSize)
	if err != nil {
		zap.L().Error("list trades failed", zap.Error(err), zap.String("account_id", accountID.String()))
		RespondError(w, r, http.StatusInternalServerError, "trade/list-failed", "Failed to list trades")
		return
	}

	RespondJSON(w, http.StatusOK, trades)
}

// Cancel terminates a pending trade without credit. Admin only.
func (h *TradeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	tradeID, ok := pathUUID(r, w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	trade, err := h.svc.Cancel(r.Context(), tradeID)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("cancel trade failed", zap.Error(err), zap.String("trade_id", tradeID.String()))
		RespondError(w, r, http.StatusInternalServerError, "trade/cancel-failed", "Failed to cancel trade")
		return
	}

	RespondJSON(w, http.StatusOK, trade)
}
