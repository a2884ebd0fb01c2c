package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/greyfinance/ledger-engine/internal/api/middleware"
	"github.com/greyfinance/ledger-engine/internal/service"
)

type AuthHandler struct {
	accounts *service.AccountService
	adminKey string
}

func NewAuthHandler(accounts *service.AccountService, adminKey string) *AuthHandler {
	return &AuthHandler{accounts: accounts, adminKey: adminKey}
}

// Login issues a signed token for an existing account. Mock login by account
// ID, standing in for a real identity provider. Admin tokens additionally
// require the configured admin key; with no key configured, admin issuance is
// disabled.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string `json:"account_id"`
		Role      string `json:"role"`
		AdminKey  string `json:"admin_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-account-id", "Invalid account_id")
		return
	}

	if _, err := h.accounts.Get(r.Context(), accountID); err != nil {
		RespondError(w, r, http.StatusNotFound, "account/not-found", "Account not found")
		return
	}

	role := "user"
	if req.Role == "admin" {
		if h.adminKey == "" ||
			subtle.ConstantTimeCompare([]byte(req.AdminKey), []byte(h.adminKey)) != 1 {
			RespondError(w, r, http.StatusForbidden, "auth/invalid-admin-key", "Admin key required")
			return
		}
		role = "admin"
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"account_id": accountID.String(),
		"sub":        accountID.String(),
		"role":       role,
		"iss":        middleware.JWTIssuer(),
		"aud":        middleware.JWTAudience(),
		"iat":        now.Unix(),
		"exp":        now.Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(middleware.JWTSecret())
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "auth/sign-failed", "Failed to sign token")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}
