package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/seating"
)

// RSVPStore is the part of the guest directory the invitation page needs.
type RSVPStore interface {
	GetByInviteToken(ctx context.Context, token string) (model.Guest, error)
	RespondRSVP(ctx context.Context, token string, attending bool, count int) (model.Guest, error)
}

// RSVPHandler serves the public invitation endpoints.  OnAnswer, when set,
// runs after a successful answer so the seating cache picks up the new
// head count.
type RSVPHandler struct {
	Guests   RSVPStore
	OnAnswer func(ctx context.Context) error
}

// rsvpView is the public projection of a guest; contact fields and the
// table assignment stay private.
type rsvpView struct {
	Name          string                   `json:"name"`
	GuestCount    int                      `json:"guest_count"`
	Confirmations int                      `json:"number_confirmations"`
	Status        model.ConfirmationStatus `json:"status"`
}

func toRSVPView(g model.Guest) rsvpView {
	return rsvpView{
		Name:          g.DisplayName(seating.DefaultGuestName),
		GuestCount:    g.PartySize,
		Confirmations: g.ConfirmedCount,
		Status:        g.Status(),
	}
}

// Get shows the invitation behind a token.
// GET /v1/rsvp/:token
func (h *RSVPHandler) Get(c echo.Context) error {
	g, err := h.Guests.GetByInviteToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toRSVPView(g))
}

type rsvpRequest struct {
	Attending *bool `json:"attending"`
	Count     int   `json:"count"`
}

// Respond records the guest's answer.  A decline always has count 0.
// POST /v1/rsvp/:token
func (h *RSVPHandler) Respond(c echo.Context) error {
	var req rsvpRequest
	if err := c.Bind(&req); err != nil || req.Attending == nil {
		return badRequest(c, "attending is required")
	}
	g, err := h.Guests.RespondRSVP(c.Request().Context(), c.Param("token"), *req.Attending, req.Count)
	if err != nil {
		return writeError(c, err)
	}
	if h.OnAnswer != nil {
		if err := h.OnAnswer(c.Request().Context()); err != nil {
			slog.Default().Warn("guest cache refresh after rsvp failed", "guest_id", g.ID, "error", err)
		}
	}
	return c.JSON(http.StatusOK, toRSVPView(g))
}
