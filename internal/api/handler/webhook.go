package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/service"
)

// WebhookHandler receives payment-provider confirmations for gateway
// deposits.
type WebhookHandler struct {
	deposits *service.DepositService
	hmacKey  []byte
}

// NewWebhookHandler builds the handler. An empty key disables signature
// verification, for local development only.
func NewWebhookHandler(deposits *service.DepositService, hmacKey string) *WebhookHandler {
	return &WebhookHandler{deposits: deposits, hmacKey: []byte(hmacKey)}
}

// GatewayConfirmation handles POST /v1/webhooks/gateway. It verifies the
// HMAC signature and approves the pending deposit matching the provider
// reference. Providers retry on non-2xx, and replays are harmless because
// approving a non-pending deposit is a no-op downstream.
func (h *WebhookHandler) GatewayConfirmation(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		zap.L().Error("read webhook body failed", zap.Error(err))
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Failed to read request body")
		return
	}

	if !h.verifyHMAC(body, r.Header.Get("X-Webhook-Signature")) {
		RespondError(w, r, http.StatusUnauthorized, "webhook/invalid-signature", "Invalid signature")
		return
	}

	var req struct {
		Reference string          `json:"reference"`
		Amount    decimal.Decimal `json:"amount"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if req.Reference == "" {
		RespondError(w, r, http.StatusBadRequest, "webhook/missing-reference", "reference is required")
		return
	}

	deposit, err := h.deposits.ConfirmGateway(r.Context(), req.Reference, req.Amount)
	if err != nil {
		if status, pType, msg, mapped := mapServiceError(err); mapped {
			RespondError(w, r, status, pType, msg)
			return
		}
		zap.L().Error("gateway confirmation failed", zap.Error(err), zap.String("reference", req.Reference))
		RespondError(w, r, http.StatusUnprocessableEntity, "webhook/confirmation-failed", err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, deposit)
}

func (h *WebhookHandler) verifyHMAC(payload []byte, signature string) bool {
	if len(h.hmacKey) == 0 {
		return true
	}
	mac := hmac.New(sha256.New, h.hmacKey)
	mac.Write(payload)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
