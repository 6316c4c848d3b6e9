package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stagedoor/theatre-ticket-reservation/internal/booking"
)

// statusFor maps a business rejection code to an HTTP status. Codes
// not listed here are storage or collaborator failures and report as
// 500.
func statusFor(code booking.Code) int {
	switch code {
	case booking.CodeInvalidInput:
		return http.StatusBadRequest
	case booking.CodeNotFound:
		return http.StatusNotFound
	case booking.CodeBadToken:
		return http.StatusUnauthorized
	case booking.CodeNotOpen:
		return http.StatusForbidden
	case booking.CodeDuplicateSchedule, booking.CodeCapReached,
		booking.CodeSeatShortage, booking.CodeAlreadyCancelled,
		booking.CodeFrozen:
		return http.StatusConflict
	case booking.CodeExpiredLink:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// respondErr writes the standard error envelope for a booking error.
// Internal failures are logged with detail but reported to the client
// without it.
func respondErr(c echo.Context, err error) error {
	var be *booking.Error
	if errors.As(err, &be) {
		return c.JSON(statusFor(be.Code), echo.Map{"error": be.Message, "code": string(be.Code)})
	}
	slog.Error("request failed", "path", c.Path(), "err", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error", "code": string(booking.CodeInternal)})
}
