// Package server exposes the dispatch engine over HTTP for the staff app and
// the operator console.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/siamclean/dispatch/pkg/core/compose"
	"github.com/siamclean/dispatch/pkg/core/model"
	"github.com/siamclean/dispatch/pkg/core/services"
	"github.com/siamclean/dispatch/pkg/db"
)

// Handler groups the dependencies the HTTP endpoints need.
type Handler struct {
	store         db.OfferStore
	pusher        services.Pusher
	mailer        services.AuditMailer
	composer      *compose.Composer
	logger        *zap.Logger
	operatorIDs   []string
	defaultLocale model.Locale
}

// NewHandler constructs a Handler. mailer may be nil when audit mail is not
// configured.
func NewHandler(
	store db.OfferStore,
	pusher services.Pusher,
	mailer services.AuditMailer,
	composer *compose.Composer,
	logger *zap.Logger,
	operatorIDs []string,
	defaultLocale model.Locale,
) *Handler {
	return &Handler{
		store:         store,
		pusher:        pusher,
		mailer:        mailer,
		composer:      composer,
		logger:        logger,
		operatorIDs:   operatorIDs,
		defaultLocale: defaultLocale,
	}
}

// Health reports liveness for load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

type createOfferRequest struct {
	ParentBookingID  string   `json:"parent_booking_id"`
	RecipientIndex   int      `json:"recipient_index"`
	RecipientName    string   `json:"recipient_name,omitempty"`
	EligibleStaffIDs []string `json:"eligible_staff_ids"`
	ScheduledAt      string   `json:"scheduled_at"`
	DurationMinutes  int      `json:"duration_minutes"`
	Earnings         float64  `json:"earnings"`
	LocationInfo     string   `json:"location_info,omitempty"`
	IsGroupBooking   bool     `json:"is_group_booking,omitempty"`
	TotalGroupSize   int      `json:"total_group_size,omitempty"`
	Locale           string   `json:"locale,omitempty"`
}

// CreateOffer handles POST /v1/offers. It persists a new Open offer and fans
// the new-job notification out to the eligible staff.
func (h *Handler) CreateOffer(c echo.Context) error {
	var req createOfferRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ParentBookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "parent_booking_id is required"})
	}
	if len(req.EligibleStaffIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "eligible_staff_ids must not be empty"})
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at must be RFC 3339"})
	}
	if req.DurationMinutes <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "duration_minutes must be positive"})
	}

	offer := &model.JobOffer{
		ParentBookingID:  req.ParentBookingID,
		RecipientIndex:   req.RecipientIndex,
		RecipientName:    req.RecipientName,
		EligibleStaffIDs: req.EligibleStaffIDs,
		ScheduledAt:      scheduledAt,
		DurationMinutes:  req.DurationMinutes,
		Earnings:         req.Earnings,
		LocationInfo:     req.LocationInfo,
		IsGroupBooking:   req.IsGroupBooking,
		TotalGroupSize:   req.TotalGroupSize,
	}
	if err := h.store.CreateOffer(c.Request().Context(), offer); err != nil {
		return h.fail(c, err)
	}

	sent := services.DispatchNewJob(c.Request().Context(), h.store, h.pusher, h.composer, h.logger,
		offer, offer.EligibleStaffIDs, h.locale(req.Locale))

	return c.JSON(http.StatusCreated, echo.Map{
		"offer":              offerResponse(offer),
		"notifications_sent": sent,
	})
}

// GetOffer handles GET /v1/offers/:id.
func (h *Handler) GetOffer(c echo.Context) error {
	offer, err := h.store.GetOffer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, offerResponse(offer))
}

// ListOpenOffers handles GET /v1/offers.
func (h *Handler) ListOpenOffers(c echo.Context) error {
	offers, err := h.store.ListOpenOffers(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	out := make([]echo.Map, 0, len(offers))
	for i := range offers {
		out = append(out, offerResponse(&offers[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"offers": out})
}

type acceptRequest struct {
	StaffID string `json:"staff_id"`
}

// AcceptOffer handles POST /v1/offers/:id/accept. First accept wins; a
// second accept gets 409.
func (h *Handler) AcceptOffer(c echo.Context) error {
	var req acceptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	err := services.AcceptOffer(c.Request().Context(), h.store, h.logger, c.Param("id"), req.StaffID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": string(model.StatusAssigned)})
}

type cancelRequest struct {
	StaffID    string `json:"staff_id"`
	ReasonCode string `json:"reason_code"`
	Notes      string `json:"notes,omitempty"`
	Locale     string `json:"locale,omitempty"`
}

// CancelOffer handles POST /v1/offers/:id/cancel. It runs the full
// cancellation cascade: close the held offer, open a replacement, notify
// remaining staff individually and alert the operators.
func (h *Handler) CancelOffer(c echo.Context) error {
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	result, err := services.Cancel(c.Request().Context(), h.store, h.pusher, h.mailer, h.composer, h.logger,
		services.CascadeParams{
			OfferID:     c.Param("id"),
			StaffID:     req.StaffID,
			Reason:      model.ReasonCode(req.ReasonCode),
			Notes:       req.Notes,
			Locale:      h.locale(req.Locale),
			OperatorIDs: h.operatorIDs,
		})
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"new_offer_id":       result.NewOfferID,
		"notifications_sent": result.NotificationsSent,
		"staff_outcomes":     outcomeResponses(result.StaffOutcomes),
		"operator_outcomes":  outcomeResponses(result.OperatorOutcomes),
	})
}

type escalateRequest struct {
	Locale string `json:"locale,omitempty"`
}

// EscalateOffer handles POST /v1/offers/:id/escalate, the operator-initiated
// urgency nudge. Pending time is measured from when the offer opened.
func (h *Handler) EscalateOffer(c echo.Context) error {
	var req escalateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	offer, err := h.store.GetOffer(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	minutesPending := int(time.Since(offer.OpenedAt).Minutes())
	if minutesPending < 0 {
		minutesPending = 0
	}

	sent, err := services.Escalate(c.Request().Context(), h.store, h.pusher, h.composer, h.logger,
		offer.ID, minutesPending, h.locale(req.Locale))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"minutes_pending":    minutesPending,
		"notifications_sent": sent,
	})
}

type remindRequest struct {
	MinutesBefore int    `json:"minutes_before"`
	Locale        string `json:"locale,omitempty"`
}

// RemindOffer handles POST /v1/offers/:id/remind. The booking flow calls it
// shortly before the scheduled start to nudge the assigned holder.
func (h *Handler) RemindOffer(c echo.Context) error {
	var req remindRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	sent, err := services.Remind(c.Request().Context(), h.store, h.pusher, h.composer, h.logger,
		c.Param("id"), req.MinutesBefore, h.locale(req.Locale))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications_sent": sent})
}

type cancelBookingRequest struct {
	Locale string `json:"locale,omitempty"`
}

// CancelBooking handles POST /v1/bookings/:id/cancel, the customer-initiated
// teardown of every child offer under a booking.
func (h *Handler) CancelBooking(c echo.Context) error {
	var req cancelBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	outcomes, err := services.CancelBooking(c.Request().Context(), h.store, h.pusher, h.composer, h.logger,
		c.Param("id"), h.locale(req.Locale))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"holder_outcomes": outcomeResponses(outcomes)})
}

// fail maps engine errors onto HTTP statuses.
func (h *Handler) fail(c echo.Context, err error) error {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Error()})
	case errors.Is(err, db.ErrOfferNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
	case errors.Is(err, db.ErrStateConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "offer state changed, please refresh"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func (h *Handler) locale(raw string) model.Locale {
	if raw == "" {
		return h.defaultLocale
	}
	return model.ParseLocale(raw)
}

func offerResponse(offer *model.JobOffer) echo.Map {
	resp := echo.Map{
		"id":                 offer.ID,
		"parent_booking_id":  offer.ParentBookingID,
		"recipient_index":    offer.RecipientIndex,
		"recipient_name":     offer.RecipientName,
		"status":             string(offer.Status),
		"eligible_staff_ids": offer.EligibleStaffIDs,
		"scheduled_at":       offer.ScheduledAt.UTC().Format(time.RFC3339),
		"duration_minutes":   offer.DurationMinutes,
		"earnings":           offer.Earnings,
		"location_info":      offer.LocationInfo,
		"is_group_booking":   offer.IsGroupBooking,
		"total_group_size":   offer.TotalGroupSize,
		"escalation_level":   offer.EscalationLevel,
		"opened_at":          offer.OpenedAt.UTC().Format(time.RFC3339),
	}
	if offer.AssignedStaffID != nil {
		resp["assigned_staff_id"] = *offer.AssignedStaffID
	}
	return resp
}

func outcomeResponses(outcomes []services.DeliveryOutcome) []echo.Map {
	out := make([]echo.Map, 0, len(outcomes))
	for _, o := range outcomes {
		m := echo.Map{"recipient_id": o.RecipientID, "success": o.Success}
		if o.Error != "" {
			m["error"] = o.Error
		}
		out = append(out, m)
	}
	return out
}
