package handlers

import (
	"errors"
	"net/http"

	"github.com/gulfreturn/gulf-api/internal/services"
	"github.com/gulfreturn/gulf-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

func writeDetail(c *drift.Context, status int, detail string) {
	_ = c.JSON(status, dto.ErrorResponse{Detail: detail})
}

// writeError maps service errors onto HTTP responses. Unexpected errors are logged and
// reported as a bare 500.
func writeError(c *drift.Context, log logrus.FieldLogger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		_ = c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{
			Detail: "Validation failed",
			Errors: verr.Fields,
		})
	case errors.Is(err, services.ErrForbidden):
		writeDetail(c, http.StatusForbidden, "Invalid admin secret key")
	case errors.Is(err, services.ErrIdentityConflict):
		writeDetail(c, http.StatusConflict, "An account with this email already exists with a different sign-in method")
	case errors.Is(err, services.ErrConflict):
		writeDetail(c, http.StatusConflict, "User with this email or username already exists")
	case errors.Is(err, services.ErrInsufficientRole):
		writeDetail(c, http.StatusForbidden, "Admin privileges required")
	case errors.Is(err, services.ErrAccountInactive):
		writeDetail(c, http.StatusForbidden, "Account is not active")
	case errors.Is(err, services.ErrUnauthorized):
		writeDetail(c, http.StatusUnauthorized, "Invalid or expired credential")
	case errors.Is(err, services.ErrUpstreamUnavailable):
		writeDetail(c, http.StatusServiceUnavailable, "Identity provider unavailable")
	case errors.Is(err, services.ErrNotFound):
		writeDetail(c, http.StatusNotFound, "Not found")
	default:
		log.WithError(err).Error("request failed")
		writeDetail(c, http.StatusInternalServerError, "Internal server error")
	}
}
