package handler

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/wallet"
)

type WalletHandler struct {
	pool *wallet.Pool
}

func NewWalletHandler(pool *wallet.Pool) *WalletHandler {
	return &WalletHandler{pool: pool}
}

// Lease reserves a deposit address on the requested network for the
// authenticated account. When the pool is exhausted the response carries a
// Retry-After hint.
func (h *WalletHandler) Lease(w http.ResponseWriter, r *http.Request) {
	actorID, _, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/unauthorized", "Unauthorized")
		return
	}

	var req struct {
		Network string `json:"network"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	lease, err := h.pool.Lease(r.Context(), req.Network, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrLeaseUnavailable) {
			if lease != nil {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(lease.Wait.Seconds()))))
			}
			RespondError(w, r, http.StatusServiceUnavailable, "wallet/pool-exhausted", "No address available on this network, retry shortly")
			return
		}
		zap.L().Error("wallet lease failed",
			zap.Error(err),
			zap.String("account_id", actorID.String()),
			zap.String("network", req.Network),
		)
		RespondError(w, r, http.StatusBadRequest, "wallet/lease-failed", err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, lease)
}

// Networks lists the supported deposit networks. Public.
func (h *WalletHandler) Networks(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, wallet.Networks)
}
