package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/greyfinance/ledger-engine/internal/api/middleware"
	"github.com/greyfinance/ledger-engine/internal/api/problem"
	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/service"
)

// RespondJSON writes a JSON response.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes an error response.
func RespondError(w http.ResponseWriter, r *http.Request, status int, problemType, message string) {
	if problemType != "" && problemType != "about:blank" && !strings.HasPrefix(problemType, "http") {
		problemType = problem.Type(problemType)
	}
	problem.Write(w, r, status, problemType, http.StatusText(status), message)
}

func requestActor(r *http.Request) (uuid.UUID, bool, error) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		return uuid.Nil, false, errors.New("missing account in auth context")
	}

	actorID, err := uuid.Parse(accountID)
	if err != nil {
		return uuid.Nil, false, errors.New("invalid account_id in auth context")
	}

	return actorID, middleware.RoleFromContext(r.Context()) == "admin", nil
}

// mapServiceError translates known sentinels into problem responses so
// handlers share one error vocabulary.
func mapServiceError(err error) (status int, problemType, message string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "resource/not-found", "resource not found", true
	case errors.Is(err, domain.ErrAccountBanned):
		return http.StatusForbidden, "account/banned", "account is banned", true
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "ledger/insufficient-funds", "insufficient funds", true
	case errors.Is(err, domain.ErrInvalidCode):
		return http.StatusNotFound, "promo/invalid-code", "invalid promo code", true
	case errors.Is(err, domain.ErrPromoExpired):
		return http.StatusGone, "promo/expired", "promo code expired", true
	case errors.Is(err, domain.ErrUsageLimitReached):
		return http.StatusConflict, "promo/usage-limit-reached", "promo usage limit reached", true
	case errors.Is(err, domain.ErrAlreadyRedeemed):
		return http.StatusConflict, "promo/already-redeemed", "promo code already redeemed", true
	case errors.Is(err, domain.ErrTradeLimitReached):
		return http.StatusTooManyRequests, "trade/quota-exceeded", "trade quota reached for the last 24 hours", true
	case errors.Is(err, domain.ErrNoRank):
		return http.StatusUnprocessableEntity, "trade/no-rank", "account holds no rank", true
	case errors.Is(err, domain.ErrRewardClaimed):
		return http.StatusConflict, "reward/already-claimed", "daily reward already claimed today", true
	case errors.Is(err, service.ErrDepositBelowMinimum):
		return http.StatusUnprocessableEntity, "deposit/below-minimum", err.Error(), true
	case errors.Is(err, service.ErrWithdrawalBelowMinimum):
		return http.StatusUnprocessableEntity, "withdrawal/below-minimum", err.Error(), true
	default:
		return 0, "", "", false
	}
}

func pathUUID(r *http.Request, w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "Invalid id in path")
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	return page, pageSize
}
