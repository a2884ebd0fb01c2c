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

type WithdrawalHandler struct {
	svc *service.WithdrawalService
}

func NewWithdrawalHandler(svc *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{svc: svc}
}

// Submit debits the withdrawable bucket and records a pending withdrawal for
// the authenticated account.
func (h *WithdrawalHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Kind          string          `json:"kind"`
		Amount        decimal.Decimal `json:"amount"`
		Network       string          `json:"network"`
		WalletAddress string          `json:"wallet_address"`
		BankName      string          `json:"bank_name"`
		AccountNumber string          `json:"account_number"`
		AccountHolder string          `json:"account_holder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	withdrawal, err := h.svc.Submit(r.Context(), service.SubmitWithdrawalRequest{
		AccountID:     actorID,
		Kind:          domain.WithdrawalKind(req.Kind),
		Amount:        req.Amount,
		Network:       req.Network,
		WalletAddress: req.WalletAddress,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountHolder: req.AccountHolder,
	})
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("submit withdrawal failed", zap.Error(err), zap.String("account_id", actorID.String()))
		RespondError(w, r, http.StatusBadRequest, "withdrawal/submit-failed", err.Error())
		return
	}

	RespondJSON(w, http.StatusCreated, withdrawal)
}

func (h *WithdrawalHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
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
	withdrawals, err := h.svc.ListByAccount(r.Context(), accountID, page, pageSize)
	if err != nil {
		zap.L().Error("list withdrawals failed", zap.Error(err), zap.String("account_id", accountID.String()))
		RespondError(w, r, http.StatusInternalServerError, "withdrawal/list-failed", "Failed to list withdrawals")
		return
	}

	RespondJSON(w, http.StatusOK, withdrawals)
}

// Approve finalizes a pending withdrawal. Admin only.
func (h *WithdrawalHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.svc.Approve, "approve")
}

// Reject refunds a pending withdrawal. Admin only.
func (h *WithdrawalHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.svc.Reject, "reject")
}

func (h *WithdrawalHandler) resolve(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*domain.Withdrawal, error), action string) {
	withdrawalID, ok := pathUUID(r, w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	withdrawal, err := fn(r.Context(), withdrawalID)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("withdrawal resolution failed",
			zap.Error(err),
			zap.String("withdrawal_id", withdrawalID.String()),
			zap.String("action", action),
		)
		RespondError(w, r, http.StatusInternalServerError, "withdrawal/resolution-failed", "Failed to resolve withdrawal")
		return
	}

	RespondJSON(w, http.StatusOK, withdrawal)
}
