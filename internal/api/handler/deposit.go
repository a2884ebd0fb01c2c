package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/service"
)

type DepositHandler struct {
	svc *service.DepositService
}

func NewDepositHandler(svc *service.DepositService) *DepositHandler {
	return &DepositHandler{svc: svc}
}

// Submit records a pending crypto deposit claim for the authenticated
// account.
func (h *DepositHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Amount        decimal.Decimal `json:"amount"`
		Network       string          `json:"network"`
		WalletAddress string          `json:"wallet_address"`
		ReferrerCode  string          `json:"referrer_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	deposit, err := h.svc.Submit(r.Context(), service.SubmitDepositRequest{
		AccountID:     actorID,
		Amount:        req.Amount,
		Network:       req.Network,
		WalletAddress: req.WalletAddress,
		ReferrerCode:  req.ReferrerCode,
	})
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("submit deposit failed", zap.Error(err), zap.String("account_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "deposit/submit-failed", "Failed to submit deposit")
		return
	}

	RespondJSON(w, http.StatusCreated, deposit)
}

// SubmitGateway records a pending local-currency deposit identified by a
// payment provider reference.
func (h *DepositHandler) SubmitGateway(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Amount    decimal.Decimal `json:"amount"`
		Reference string          `json:"reference"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	deposit, err := h.svc.SubmitGateway(r.Context(), actorID, req.Amount, req.Reference)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("submit gateway deposit failed", zap.Error(err), zap.String("account_id", actorID.String()))
		RespondError(w, r, http.StatusInternalServerError, "deposit/submit-failed", "Failed to submit deposit")
		return
	}

	RespondJSON(w, http.StatusCreated, deposit)
}

func (h *DepositHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, isAdmin, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	depositID, ok := pathUUID(r, w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	deposit, err := h.svc.Get(r.Context(), depositID)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("get deposit failed", zap.Error(err), zap.String("deposit_id", depositID.String()))
		RespondError(w, r, http.StatusInternalServerError, "deposit/read-failed", "Failed to get deposit")
		return
	}
	if !isAdmin && deposit.AccountID != actorID {
		RespondError(w, r, http.StatusForbidden, "auth/insufficient-permissions", "insufficient permissions")
		return
	}

	RespondJSON(w, http.StatusOK, deposit)
}

func (h *DepositHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
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
	deposits, err := h.svc.ListByAccount(r.Context(), accountID, page, pageSize)
	if err != nil {
		zap.L().Error("list deposits failed", zap.Error(err), zap.String("account_id", accountID.String()))
		RespondError(w, r, http.StatusInternalServerError, "deposit/list-failed", "Failed to list deposits")
		return
	}

	RespondJSON(w, http.StatusOK, deposits)
}

// Approve moves a pending deposit to approved. Admin only.
func (h *DepositHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.svc.Approve, "approve")
}

// Reject moves a pending deposit to rejected. Admin only.
func (h *DepositHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.svc.Reject, "reject")
}

func (h *DepositHandler) resolve(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*domain.Deposit, error), action string) {
	depositID, ok := pathUUID(r, w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	deposit, err := fn(r.Context(), depositID)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("deposit resolution failed",
			zap.Error(err),
			zap.String("deposit_id", depositID.String()),
			zap.String("action", action),
		)
		RespondError(w, r, http.StatusInternalServerError, "deposit/resolution-failed", "Failed to resolve deposit")
		return
	}

	RespondJSON(w, http.StatusOK, deposit)
}
