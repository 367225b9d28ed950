package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/wedding-seating/internal/invite"
	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/seating"
)

// GuestAdmin is the writable side of the guest directory.
type GuestAdmin interface {
	GetByID(ctx context.Context, id string) (model.Guest, error)
	CreateGuest(ctx context.Context, d model.GuestDraft) (model.Guest, error)
	UpdateGuest(ctx context.Context, id string, u model.GuestUpdate) (model.Guest, error)
	DeleteGuest(ctx context.Context, id string) error
}

// GuestHandler manages directory rows.  Every write reaches the directory
// first; the engine's guest cache is refreshed afterwards.
type GuestHandler struct {
	Guests GuestAdmin
	Engine *seating.Engine
	Links  invite.Builder
}

func NewGuestHandler(guests GuestAdmin, engine *seating.Engine, links invite.Builder) *GuestHandler {
	return &GuestHandler{Guests: guests, Engine: engine, Links: links}
}

// guestDetail is the admin projection of a guest with its invite token
// and shareable links.
type guestDetail struct {
	guestView
	InviteToken string       `json:"invite_token"`
	Links       invite.Links `json:"links"`
}

func (h *GuestHandler) detail(g model.Guest) guestDetail {
	return guestDetail{
		guestView:   guestView{Guest: g, Status: g.Status(), SeatsNeeded: g.SeatsNeeded()},
		InviteToken: g.InviteToken,
		Links:       h.Links.For(g),
	}
}

func (h *GuestHandler) refresh(ctx context.Context) {
	if err := h.Engine.RefreshGuests(ctx); err != nil {
		slog.Default().Warn("guest cache refresh after directory write failed", "error", err)
	}
}

// Get returns one guest straight from the directory.
// GET /v1/admin/guests/:id
func (h *GuestHandler) Get(c echo.Context) error {
	g, err := h.Guests.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, h.detail(g))
}

// Create adds a pending guest with a fresh invite token.
// POST /v1/admin/guests
func (h *GuestHandler) Create(c echo.Context) error {
	var d model.GuestDraft
	if err := c.Bind(&d); err != nil {
		return badRequest(c, "invalid body")
	}
	if d.PartySize == 0 {
		d.PartySize = 1
	}
	g, err := h.Guests.CreateGuest(c.Request().Context(), d)
	if err != nil {
		return writeError(c, err)
	}
	h.refresh(c.Request().Context())
	return c.JSON(http.StatusCreated, h.detail(g))
}

// Update edits a guest.  Fields left out of the body are unchanged.
// PATCH /v1/admin/guests/:id
func (h *GuestHandler) Update(c echo.Context) error {
	var u model.GuestUpdate
	if err := c.Bind(&u); err != nil {
		return badRequest(c, "invalid body")
	}
	if u.Empty() {
		return badRequest(c, "nothing to update")
	}
	g, err := h.Guests.UpdateGuest(c.Request().Context(), c.Param("id"), u)
	if err != nil {
		return writeError(c, err)
	}
	h.refresh(c.Request().Context())
	return c.JSON(http.StatusOK, h.detail(g))
}

// Delete removes the guest from the directory, then frees every seat it
// held locally.
// DELETE /v1/admin/guests/:id
func (h *GuestHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if err := h.Guests.DeleteGuest(ctx, id); err != nil {
		return writeError(c, err)
	}
	if _, err := h.Engine.ForgetGuest(ctx, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
