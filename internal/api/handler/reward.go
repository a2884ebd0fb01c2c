package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/service"
)

type RewardHandler struct {
	svc *service.RewardService
}

func NewRewardHandler(svc *service.RewardService) *RewardHandler {
	return &RewardHandler{svc: svc}
}

// Claim grants the daily login reward to the authenticated account.
func (h *RewardHandler) Claim(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	claim, err := h.svc.Claim(r.Context(), actorID)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("claim reward failed", zap.Error(err), zap.String("account_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "reward/claim-failed", "Failed to claim reward")
		return
	}

	RespondJSON(w, http.StatusCreated, claim)
}
