package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/service"
)

type AccountHandler struct {
	svc *service.AccountService
}

func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{svc: svc}
}

// CreateAccount registers a new account. Public: this is the signup entry
// point, before any token exists.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	account, err := h.svc.Create(r.Context(), req.Email)
	if err != nil {
		zap.L().Error("create account failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "account/create-failed", "Failed to create account")
		return
	}

	RespondJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
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

	account, err := h.svc.Get(r.Context(), accountID)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("get account failed", zap.Error(err), zap.String("account_id", accountID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/read-failed", "Failed to get account")
		return
	}

	RespondJSON(w, http.StatusOK, account)
}

func (h *AccountHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
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

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	notifications, err := h.svc.Notifications(r.Context(), accountID, limit)
	if err != nil {
		zap.L().Error("list notifications failed", zap.Error(err), zap.String("account_id", accountID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/notifications-read-failed", "Failed to list notifications")
		return
	}

	RespondJSON(w, http.StatusOK, notifications)
}

// SetBanned toggles the banned flag. Admin only, enforced by the router.
func (h *AccountHandler) SetBanned(w http.ResponseWriter, r *http.Request) {
	accountID, ok := pathUUID(r, w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req struct {
		Banned bool `json:"banned"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	if err := h.svc.SetBanned(r.Context(), accountID, req.Banned); err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("set banned failed", zap.Error(err), zap.String("account_id", accountID.String()))
		RespondError(w, r, http.StatusInternalServerError, "account/ban-failed", "Failed to update ban status")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]bool{"banned": req.Banned})
}
