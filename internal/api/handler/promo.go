package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/service"
)

type PromoHandler struct {
	svc *service.PromoService
}

func NewPromoHandler(svc *service.PromoService) *PromoHandler {
	return &PromoHandler{svc: svc}
}

// Redeem applies a promo code to the authenticated account.
func (h *PromoHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	deposit, err := h.svc.Redeem(r.Context(), actorID, req.Code)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("redeem promo failed", zap.Error(err), zap.String("account_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "promo/redeem-failed", "Failed to redeem promo code")
		return
	}

	RespondJSON(w, http.StatusCreated, deposit)
}

// Create registers a new promo code. Admin only.
func (h *PromoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code       string          `json:"code"`
		BonusMin   decimal.Decimal `json:"bonus_min"`
		BonusMax   decimal.Decimal `json:"bonus_max"`
		Expiration *time.Time      `json:"expiration"`
		UsageLimit *int            `json:"usage_limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	promo, err := h.svc.Create(r.Context(), service.CreatePromoRequest{
		Code:       req.Code,
		BonusMin:   req.BonusMin,
		BonusMax:   req.BonusMax,
		Expiration: req.Expiration,
		UsageLimit: req.UsageLimit,
	})
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("create promo failed", zap.Error(err))
		RespondError(w, r, http.StatusBadRequest, "promo/create-failed", err.Error())
		return
	}

	RespondJSON(w, http.StatusCreated, promo)
}

// Disable deactivates a promo code. Admin only.
func (h *PromoHandler) Disable(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		RespondError(w, r, http.StatusBadRequest, "request/missing-code", "code is required")
		return
	}

	if err := h.svc.Disable(r.Context(), code); err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("disable promo failed", zap.Error(err), zap.String("code", code))
		RespondError(w, r, http.StatusInternalServerError, "promo/disable-failed", "Failed to disable promo code")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
}
