package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/wedding-seating/internal/repository"
	"github.com/iliyamo/wedding-seating/internal/seating"
)

// writeError maps domain errors onto status codes.  Directory failures are
// checked first because they wrap the repository's own errors.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, seating.ErrDirectoryUpdate):
		status, msg = http.StatusBadGateway, err.Error()
	case errors.Is(err, seating.ErrInsufficientSeats),
		errors.Is(err, seating.ErrTableNumberInUse),
		errors.Is(err, seating.ErrLayoutChanged),
		errors.Is(err, repository.ErrAlreadyResponded):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, seating.ErrTableNotFound),
		errors.Is(err, seating.ErrGuestNotFound),
		errors.Is(err, seating.ErrSeatNotFound),
		errors.Is(err, seating.ErrNoTableAtPoint),
		errors.Is(err, repository.ErrGuestNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, seating.ErrNotCompanion),
		errors.Is(err, seating.ErrInvalidTable),
		errors.Is(err, seating.ErrInvalidPatch),
		errors.Is(err, repository.ErrInvalidRSVP),
		errors.Is(err, repository.ErrInvalidGuest):
		status, msg = http.StatusBadRequest, err.Error()
	default:
		slog.Default().Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}
	return c.JSON(status, echo.Map{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
