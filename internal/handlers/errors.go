package handlers

import (
	"errors"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/metrics"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/auth"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/services/payment"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var kindStatus = map[apperrors.Kind]int{
	apperrors.KindValidation:    fiber.StatusBadRequest,
	apperrors.KindConflict:      fiber.StatusConflict,
	apperrors.KindNotFound:      fiber.StatusNotFound,
	apperrors.KindAuthorization: fiber.StatusForbidden,
}

// respondError maps service errors onto HTTP responses. Unknown errors are
// logged and reported as 500 without leaking their text.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	if de, ok := apperrors.As(err); ok {
		metrics.HTTPErrors.WithLabelValues(string(de.Kind)).Inc()
		extra := fiber.Map{"code": de.Code}
		if len(de.Fields) > 0 {
			extra["fields"] = de.Fields
		}
		return utils.Error(c, kindStatus[de.Kind], de.Message, extra)
	}

	switch {
	case errors.Is(err, auth.ErrAccountLocked):
		metrics.HTTPErrors.WithLabelValues("locked").Inc()
		return utils.Error(c, fiber.StatusLocked, err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials):
		metrics.HTTPErrors.WithLabelValues("credentials").Inc()
		return utils.Unauthorized(c, err.Error())
	case errors.Is(err, auth.ErrTokenRevoked):
		metrics.HTTPErrors.WithLabelValues("credentials").Inc()
		return utils.Unauthorized(c, "Session expired, please login again")
	case errors.Is(err, payment.ErrGatewayUnavailable):
		metrics.HTTPErrors.WithLabelValues("unavailable").Inc()
		return utils.Error(c, fiber.StatusServiceUnavailable, err.Error(), nil)
	}

	metrics.HTTPErrors.WithLabelValues("internal").Inc()
	log.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))
	return utils.InternalError(c, "Something went wrong, please try again")
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation(apperrors.FieldError{Field: name, Message: "must be a positive integer"})
	}
	return uint(id), nil
}
