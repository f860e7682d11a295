//go:build !integration

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"telegram-credential-broker/internal/application"
	"telegram-credential-broker/internal/config"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/infra/store"
	"telegram-credential-broker/internal/infra/web"
	"telegram-credential-broker/internal/usecase"

	"github.com/rs/zerolog"
)

type testEnv struct {
	core    *application.Core
	auth    *web.AuthManager
	handler http.Handler
	token   string
}

// newTestEnv builds the admin API over a real store in a temp dir and logs
// in, returning a ready-to-use bearer token.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	st, err := store.Open(t.TempDir(), time.Second, &logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	users := store.NewUserRepo()
	payments := store.NewPaymentRepo()
	creds := store.NewCredentialRepo()
	subs := store.NewSubscriptionRepo()
	coupons := store.NewCouponRepo()
	refs := store.NewReferralRepo()
	settings := store.NewSettingsRepo()

	catalog := model.Catalog{
		"basic": {ID: "basic", Name: "Basic", DurationDays: 30, RegularPrice: 1000},
	}
	refCfg := config.ReferralConfig{ReferrerRewardPercent: 10, ReferredDiscountPercent: 5, FreeMonthAfter: 3}

	poolUC := usecase.NewPoolUseCase(creds, catalog, st, &logger)
	pricingUC := usecase.NewPricingUseCase(coupons, settings, refCfg, st, &logger)
	referralUC := usecase.NewReferralUseCase(refs, users, subs, refCfg, st, &logger)
	paymentUC := usecase.NewPaymentUseCase(payments, subs, users, coupons, poolUC, pricingUC, referralUC, catalog, st, &logger)
	subUC := usecase.NewSubscriptionUseCase(subs, creds, poolUC, st, &logger)
	userUC := usecase.NewUserUseCase(users, subs, poolUC, st, &logger)
	couponUC := usecase.NewCouponUseCase(coupons, st, &logger)
	salesUC := usecase.NewSalesUseCase(settings, st, &logger)
	statsUC := usecase.NewStatsUseCase(users, subs, payments, creds, st, &logger)

	core := application.NewCore(userUC, poolUC, paymentUC, subUC, couponUC, referralUC, pricingUC, salesUC, statsUC, catalog)
	auth := web.NewAuthManager("test-secret", "hunter2", time.Hour)
	server := web.NewServer(core, auth, 0, &logger)

	env := &testEnv{core: core, auth: auth, handler: serverHandler(server)}
	env.token = env.login(t, "hunter2")
	return env
}

// serverHandler exposes the router for httptest without binding a port.
func serverHandler(s *web.Server) http.Handler { return s.Handler() }

func (e *testEnv) login(t *testing.T, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.Token
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestAuth(t *testing.T) {
	env := newTestEnv(t)

	t.Run("wrong password", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"password": "wrong"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("protected route without a token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("protected route with the token", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/stats", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestPaymentEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.core.RegisterOrFetch(ctx, 1, "buyer", "Buyer", 0)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	rec := env.do(t, http.MethodPost, "/api/v1/credentials/", map[string]any{
		"plan_id": "basic",
		"entries": []map[string]string{{"username": "login", "password": "secret"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add credentials status = %d: %s", rec.Code, rec.Body)
	}

	p, err := env.core.CreatePayment(ctx, u.ID, "basic", "")
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/payments/pending", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pending status = %d", rec.Code)
	}
	var pending struct {
		Data []*model.Payment `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pending); err != nil {
		t.Fatalf("decode pending: %v", err)
	}
	if len(pending.Data) != 1 || pending.Data[0].ID != p.ID {
		t.Fatalf("pending = %v", pending.Data)
	}

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/payments/%s/approve", p.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d: %s", rec.Code, rec.Body)
	}

	// A second approve conflicts.
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/payments/%s/approve", p.ID), nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second approve status = %d, want 409", rec.Code)
	}
}

func TestSalesEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/sales/suspend", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("suspend status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/v1/sales/", nil)
	var status map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status["enabled"] {
		t.Error("sales should be suspended")
	}

	rec = env.do(t, http.MethodPost, "/api/v1/sales/resume", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("resume status = %d", rec.Code)
	}
}

func TestCouponEndpoints(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"code": "WEB10", "type": "percent", "value": 10, "max_uses": 5,
	}
	rec := env.do(t, http.MethodPost, "/api/v1/coupons/", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	rec = env.do(t, http.MethodPost, "/api/v1/coupons/", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/api/v1/coupons/WEB10", nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
}
