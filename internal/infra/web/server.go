package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"telegram-credential-broker/internal/application"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server is the admin HTTP API. Everything under /api/v1 except /login sits
// behind the JWT session middleware.
type Server struct {
	core *application.Core
	auth *AuthManager
	log  *zerolog.Logger
	http *http.Server
}

func NewServer(core *application.Core, auth *AuthManager, port int, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "admin-web").Logger()
	s := &Server{core: core, auth: auth, log: &l}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Post("/logout", s.handleLogout)
			r.Get("/stats", s.handleStats)

			r.Route("/payments", func(r chi.Router) {
				r.Get("/pending", s.handlePendingPayments)
				r.Post("/{id}/approve", s.handleApprovePayment)
				r.Post("/{id}/reject", s.handleRejectPayment)
			})

			r.Route("/credentials", func(r chi.Router) {
				r.Get("/", s.handleListCredentials)
				r.Post("/", s.handleAddCredentials)
				r.Get("/counts", s.handlePoolCounts)
				r.Post("/{id}/reclaim", s.handleReclaimCredential)
			})

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", s.handleListCoupons)
				r.Post("/", s.handleCreateCoupon)
				r.Delete("/{code}", s.handleDeleteCoupon)
			})

			r.Route("/discounts", func(r chi.Router) {
				r.Get("/", s.handleListDiscounts)
				r.Post("/", s.handleAddDiscount)
				r.Delete("/{id}", s.handleRemoveDiscount)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", s.handleListUsers)
				r.Get("/{id}/subscriptions", s.handleUserSubscriptions)
				r.Post("/{id}/ban", s.handleBanUser)
				r.Post("/{id}/unban", s.handleUnbanUser)
			})

			r.Route("/sales", func(r chi.Router) {
				r.Get("/", s.handleSalesStatus)
				r.Post("/suspend", s.handleSuspendSales)
				r.Post("/resume", s.handleResumeSales)
			})
		})
	})

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.http.Addr).Msg("admin web listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
