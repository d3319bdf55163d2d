package http

import (
	"net/http"
	"time"

	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/security"
	"rental-marketplace-backend/internal/service"

	"github.com/gorilla/mux"
)

// Handler serves the JSON API. Every route is named; the name selects its security level.
type Handler struct {
	auth          service.AuthService
	bookings      service.BookingService
	payouts       service.PayoutService
	payments      service.PaymentService
	listings      service.ListingService
	notifications service.NotificationService
	tokens        security.TokenManager
}

func NewHandler(
	auth service.AuthService,
	bookings service.BookingService,
	payouts service.PayoutService,
	payments service.PaymentService,
	listings service.ListingService,
	notifications service.NotificationService,
	tokens security.TokenManager,
) *Handler {
	return &Handler{
		auth:          auth,
		bookings:      bookings,
		payouts:       payouts,
		payments:      payments,
		listings:      listings,
		notifications: notifications,
		tokens:        tokens,
	}
}

// NewRouter registers all routes under /api/v1 plus /healthz.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger)

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet).Name("healthz")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware(h.tokens))

	api.HandleFunc("/auth/login", h.login).Methods(http.MethodPost).Name("login")
	api.HandleFunc("/auth/refresh", h.refresh).Methods(http.MethodPost).Name("refresh")
	api.HandleFunc("/webhooks/payments", h.paymentWebhook).Methods(http.MethodPost).Name("payment-webhook")

	api.HandleFunc("/listings/{id}/quote", h.quoteBooking).Methods(http.MethodGet).Name("quote")
	api.HandleFunc("/listings/{id}/deactivate", h.deactivateListing).Methods(http.MethodPost).Name("deactivate-listing")

	api.HandleFunc("/bookings", h.createBooking).Methods(http.MethodPost).Name("create-booking")
	api.HandleFunc("/bookings", h.listBookings).Methods(http.MethodGet).Name("list-bookings")
	api.HandleFunc("/bookings/{id}", h.getBooking).Methods(http.MethodGet).Name("get-booking")
	api.HandleFunc("/bookings/{id}/approve", h.approveBooking).Methods(http.MethodPost).Name("approve-booking")
	api.HandleFunc("/bookings/{id}/reject", h.rejectBooking).Methods(http.MethodPost).Name("reject-booking")
	api.HandleFunc("/bookings/{id}/cancel", h.cancelBooking).Methods(http.MethodPost).Name("cancel-booking")
	api.HandleFunc("/bookings/{id}/pickup", h.confirmPickup).Methods(http.MethodPost).Name("confirm-pickup")
	api.HandleFunc("/bookings/{id}/return", h.markReturned).Methods(http.MethodPost).Name("mark-returned")
	api.HandleFunc("/bookings/{id}/confirm-return", h.confirmReturn).Methods(http.MethodPost).Name("confirm-return")
	api.HandleFunc("/bookings/{id}/dispute", h.openDispute).Methods(http.MethodPost).Name("open-dispute")
	api.HandleFunc("/bookings/{id}/payment/sync", h.syncPayment).Methods(http.MethodPost).Name("sync-payment")

	api.HandleFunc("/notifications", h.listNotifications).Methods(http.MethodGet).Name("list-notifications")
	api.HandleFunc("/notifications/{id}/read", h.readNotification).Methods(http.MethodPost).Name("read-notification")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/payouts", h.listPayouts).Methods(http.MethodGet).Name("list-payouts")
	admin.HandleFunc("/payouts/release", h.bulkRelease).Methods(http.MethodPost).Name("bulk-release")
	admin.HandleFunc("/payouts/{id}/release", h.releasePayout).Methods(http.MethodPost).Name("release-payout")
	admin.HandleFunc("/bookings/{id}/dispute", h.markDisputed).Methods(http.MethodPost).Name("mark-disputed")
	admin.HandleFunc("/bookings/{id}/resolve", h.resolveDispute).Methods(http.MethodPost).Name("resolve-dispute")
	admin.HandleFunc("/listings/{id}/approve", h.approveListing).Methods(http.MethodPost).Name("approve-listing")
	admin.HandleFunc("/listings/{id}/reject", h.rejectListing).Methods(http.MethodPost).Name("reject-listing")

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
