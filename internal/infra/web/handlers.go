package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/usecase"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidCoupon),
		errors.Is(err, domain.ErrCouponExpired),
		errors.Is(err, domain.ErrBelowMinPurchase):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrDuplicateCode),
		errors.Is(err, domain.ErrPendingPayment),
		errors.Is(err, domain.ErrCouponLimitReached):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrPoolExhausted):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrBusy):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// ---- session ----

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	token, err := s.auth.Login(w, req.Password)
	if err != nil {
		s.log.Warn().Msg("failed admin login attempt")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(w)
	w.WriteHeader(http.StatusNoContent)
}

// ---- stats ----

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.core.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ---- payments ----

func (s *Server) handlePendingPayments(w http.ResponseWriter, r *http.Request) {
	pending, err := s.core.PendingPayments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Payment `json:"data"`
	}{Data: pending})
}

func (s *Server) handleApprovePayment(w http.ResponseWriter, r *http.Request) {
	res, err := s.core.ApprovePayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Payment      *model.Payment      `json:"payment"`
		Subscription *model.Subscription `json:"subscription"`
	}{Payment: res.Payment, Subscription: res.Subscription})
}

func (s *Server) handleRejectPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	payment, err := s.core.RejectPayment(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// ---- credentials ----

type credentialEntry struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Notes    string `json:"notes"`
}

func (s *Server) handleAddCredentials(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlanID  string            `json:"plan_id"`
		Entries []credentialEntry `json:"entries"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	entries := make([]usecase.BatchEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entries = append(entries, usecase.BatchEntry{Username: e.Username, Password: e.Password, Notes: e.Notes})
	}
	added, err := s.core.AddCredentialBatch(r.Context(), req.PlanID, entries)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"added": added})
}

func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := s.core.ListCredentials(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Credential `json:"data"`
	}{Data: creds})
}

func (s *Server) handlePoolCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.core.PoolCounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleReclaimCredential(w http.ResponseWriter, r *http.Request) {
	if err := s.core.ReclaimCredential(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- coupons ----

func (s *Server) handleCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string    `json:"code"`
		Type        string    `json:"type"`
		Value       int64     `json:"value"`
		ExpiresAt   time.Time `json:"expires_at"`
		MaxUses     int       `json:"max_uses"`
		MinPurchase int64     `json:"min_purchase"`
		Plans       []string  `json:"plans"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	coupon, err := s.core.CreateCoupon(r.Context(), req.Code, model.DiscountType(req.Type), req.Value, req.ExpiresAt, req.MaxUses, req.MinPurchase, req.Plans)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, coupon)
}

func (s *Server) handleDeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := s.core.DeleteCoupon(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := s.core.ListCoupons(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Coupon `json:"data"`
	}{Data: coupons})
}

// ---- seasonal discounts ----

func (s *Server) handleAddDiscount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Percent   int64     `json:"percent"`
		ExpiresAt time.Time `json:"expires_at"`
		Plans     []string  `json:"plans"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	d, err := s.core.AddSeasonalDiscount(r.Context(), req.Percent, req.ExpiresAt, req.Plans)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleRemoveDiscount(w http.ResponseWriter, r *http.Request) {
	if err := s.core.RemoveSeasonalDiscount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := s.core.ListSeasonalDiscounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.SeasonalDiscount `json:"data"`
	}{Data: discounts})
}

// ---- users ----

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.core.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.User `json:"data"`
	}{Data: users})
}

func (s *Server) handleUserSubscriptions(w http.ResponseWriter, r *http.Request) {
	views, err := s.core.SubscriptionStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*usecase.SubscriptionView `json:"data"`
	}{Data: views})
}

func (s *Server) handleBanUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	user, err := s.core.BanUser(r.Context(), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUnbanUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.core.UnbanUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ---- sales switch ----

func (s *Server) handleSalesStatus(w http.ResponseWriter, r *http.Request) {
	enabled, err := s.core.SalesEnabled(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

func (s *Server) handleSuspendSales(w http.ResponseWriter, r *http.Request) {
	if err := s.core.SuspendSales(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResumeSales(w http.ResponseWriter, r *http.Request) {
	if err := s.core.ResumeSales(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
