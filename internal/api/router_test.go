package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/api/middleware"
	"github.com/greyfinance/ledger-engine/internal/gateway"
	"github.com/greyfinance/ledger-engine/internal/service"
	"github.com/greyfinance/ledger-engine/internal/storage/memory"
	"github.com/greyfinance/ledger-engine/internal/wallet"
)

func newTestRouter(t *testing.T) http.Handler {
	return newTestRouterWithAdminKey(t, "test-admin-key")
}

func newTestRouterWithAdminKey(t *testing.T, adminKey string) http.Handler {
	t.Helper()

	middleware.SetJWTSecret("test-secret")
	middleware.SetJWTValidation("ledger-engine", "ledger-engine")

	st := memory.NewStore()
	accounts, err := service.NewAccountService(st)
	require.NoError(t, err)

	return NewRouter(Deps{
		Logger:      zap.NewNop(),
		Accounts:    accounts,
		Deposits:    service.NewDepositService(st, service.NopNotifier{}),
		Withdrawals: service.NewWithdrawalService(st, gateway.NewMockGateway(), service.NopNotifier{}),
		Trades:      service.NewTradeService(st, service.NopNotifier{}),
		Promos:      service.NewPromoService(st, service.NopNotifier{}),
		Rewards:     service.NewRewardService(st, service.NopNotifier{}),
		Ranks:       service.NewRankService(st),
		WalletPool:  wallet.NewPool(st),

		AdminLoginKey:      adminKey,
		PublicRateLimitRPS: 100,
		AuthRateLimitRPS:   100,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterSignupLoginAndRead(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/accounts", "", map[string]string{"email": "user@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var account struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))
	require.NotEmpty(t, account.ID)

	rec = doJSON(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{"account_id": account.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	rec = doJSON(t, router, http.MethodGet, "/v1/accounts/"+account.ID, login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRejectsUnauthenticated(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/accounts/00000000-0000-0000-0000-000000000001", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")

	rec = doJSON(t, router, http.MethodGet, "/v1/accounts/00000000-0000-0000-0000-000000000001", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterOwnershipAndRoles(t *testing.T) {
	router := newTestRouter(t)

	signup := func(email string) (id, token string) {
		rec := doJSON(t, router, http.MethodPost, "/v1/accounts", "", map[string]string{"email": email})
		require.Equal(t, http.StatusCreated, rec.Code)
		var account struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))

		rec = doJSON(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{"account_id": account.ID})
		require.Equal(t, http.StatusOK, rec.Code)
		var login struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
		return account.ID, login.Token
	}

	aliceID, aliceToken := signup("alice@example.com")
	_, bobToken := signup("bob@example.com")

	// Bob cannot read Alice's account.
	rec := doJSON(t, router, http.MethodGet, "/v1/accounts/"+aliceID, bobToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// A user token cannot reach admin routes.
	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/admin/accounts/%s/ban", aliceID), aliceToken,
		map[string]bool{"banned": true})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Requesting an admin token without the admin key is refused.
	rec = doJSON(t, router, http.MethodPost, "/v1/auth/login", "",
		map[string]string{"account_id": aliceID, "role": "admin"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/auth/login", "",
		map[string]string{"account_id": aliceID, "role": "admin", "admin_key": "wrong"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// With the configured key, the admin token works end to end.
	rec = doJSON(t, router, http.MethodPost, "/v1/auth/login", "",
		map[string]string{"account_id": aliceID, "role": "admin", "admin_key": "test-admin-key"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/admin/accounts/%s/ban", aliceID), login.Token,
		map[string]bool{"banned": true})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterAdminLoginDisabledWithoutKey(t *testing.T) {
	router := newTestRouterWithAdminKey(t, "")

	rec := doJSON(t, router, http.MethodPost, "/v1/accounts", "", map[string]string{"email": "noadmin@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var account struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &account))

	// Even a matching empty key never mints an admin token.
	rec = doJSON(t, router, http.MethodPost, "/v1/auth/login", "",
		map[string]string{"account_id": account.ID, "role": "admin", "admin_key": ""})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterPublicRankTable(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/ranks", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz/live", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
