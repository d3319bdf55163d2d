package http

import (
	"net/http"
	"strconv"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"

	"github.com/google/uuid"
)

type bookingRequest struct {
	ListingID   uuid.UUID `json:"listing_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Insurance   bool      `json:"insurance"`
	DeliveryFee int64     `json:"delivery_fee"`
}

func (b bookingRequest) toService() (service.CreateBookingRequest, error) {
	start, err := parseDate("start_date", b.StartDate)
	if err != nil {
		return service.CreateBookingRequest{}, err
	}
	end, err := parseDate("end_date", b.EndDate)
	if err != nil {
		return service.CreateBookingRequest{}, err
	}
	return service.CreateBookingRequest{
		ListingID:   b.ListingID,
		StartDate:   start,
		EndDate:     end,
		Insurance:   b.Insurance,
		DeliveryFee: b.DeliveryFee,
	}, nil
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) quoteBooking(w http.ResponseWriter, r *http.Request) {
	listingID, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	body := bookingRequest{
		ListingID: listingID,
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}
	body.Insurance, _ = strconv.ParseBool(q.Get("insurance"))
	if raw := q.Get("delivery_fee"); raw != "" {
		if body.DeliveryFee, err = strconv.ParseInt(raw, 10, 64); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "delivery_fee must be an integer amount in cents")
			return
		}
	}
	req, err := body.toService()
	if err != nil {
		writeError(w, r, err)
		return
	}
	quote, err := h.bookings.QuoteBooking(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	var body bookingRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	req, err := body.toService()
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.bookings.CreateBooking(r.Context(), userID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	page, size, err := paging(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	items, total, err := h.bookings.ListBookings(r.Context(), userID(r), service.BookingRole(q.Get("role")), q.Get("status"), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{Items: items, Total: total, Page: page, PageSize: size})
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.bookings.GetBooking(r.Context(), userID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type bookingAction func(h *Handler, r *http.Request, userID, bookingID uuid.UUID, reason string) (*domain.Booking, error)

// bookingActionHandler decodes the path id and an optional reason body, then runs a lifecycle action.
func (h *Handler) bookingActionHandler(action bookingAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var body reasonRequest
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err)
			return
		}
		b, err := action(h, r, userID(r), id, body.Reason)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func (h *Handler) approveBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingActionHandler(func(h *Handler, r *http.Request, uid, id uuid.UUID, _ string) (*domain.Booking, error) {
		return h.bookings.ApproveBooking(r.Context(), uid, id)
	})(w, r)
}

func (h *Handler) rejectBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingActionHandler(func(h *Handler, r *http.Request, uid, id uuid.UUID, reason string) (*domain.Booking, error) {
		return h.bookings.RejectBooking(r.Context(), uid, id, reason)
	})(w, r)
}

func (h *Handler) cancelBooking(w http.ResponseWriter, r *http.Request) {
	h.bookingActionHandler(func(h *Handler, r *http.Request, uid, id uuid.UUID, reason string) (*domain.Booking, error) {
		return h.bookings.CancelBooking(r.Context(), uid, id, reason)
	})(w, r)
}

func (h *Handler) confirmPickup(w http.ResponseWriter, r *http.Request) {
	h.bookingActionHandler(func(h *Handler, r *http.Request, uid, id uuid.UUID, _ string) (*domain.Booking, error) {
		return h.bookings.ConfirmPickup(r.Context(), uid, id)
	})(w, r)
}

func (h *Handler) markReturned(w http.ResponseWriter, r *http.Request) {
	h.bookingActionHandler(func(h *Handler, r *http.Request, uid, id uuid.UUID, _ string) (*domain.Booking, error) {
		return h.bookings.MarkReturned(r.Context(), uid, id)
	})(w, r)
}

func (h *Handler) confirmReturn(w http.ResponseWriter, r *http.Request) {
	h.bookingActionHandler(func(h *Handler, r *http.Request, uid, id uuid.UUID, _ string) (*domain.Booking, error) {
		return h.bookings.ConfirmReturn(r.Context(), uid, id)
	})(w, r)
}

func (h *Handler) openDispute(w http.ResponseWriter, r *http.Request) {
	h.bookingActionHandler(func(h *Handler, r *http.Request, uid, id uuid.UUID, reason string) (*domain.Booking, error) {
		return h.bookings.OpenDispute(r.Context(), uid, id, reason)
	})(w, r)
}

func (h *Handler) syncPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Only participants may poll the processor for a booking.
	if _, err := h.bookings.GetBooking(r.Context(), userID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.payments.SyncPaymentStatus(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	var n service.PaymentNotification
	if err := decodeJSON(r, &n); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.payments.HandleNotification(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(p.Status)})
}
