package utils

import (
	"errors"

	"github.com/degreepass/verification_service/internal/apperr"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func ResponseError(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"message": msg,
	})
}

func ResponseSuccess(ctx *fiber.Ctx, status int, data interface{}) error {
	return ctx.Status(status).JSON(data)
}

// ResponseAppError maps the apperr taxonomy onto HTTP statuses. Errors
// outside the taxonomy fall through as 500 without leaking internals.
func ResponseAppError(ctx *fiber.Ctx, err error) error {
	var (
		validationErr *apperr.ValidationError
		authErr       *apperr.AuthError
		authzErr      *apperr.AuthzError
		notFoundErr   *apperr.NotFoundError
		conflictErr   *apperr.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		return ResponseError(ctx, fiber.StatusBadRequest, validationErr.Error())
	case errors.As(err, &authErr):
		return ResponseError(ctx, fiber.StatusUnauthorized, authErr.Error())
	case errors.As(err, &authzErr):
		return ResponseError(ctx, fiber.StatusForbidden, authzErr.Error())
	case errors.As(err, &notFoundErr):
		return ResponseError(ctx, fiber.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &conflictErr):
		return ResponseError(ctx, fiber.StatusConflict, conflictErr.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ResponseError(ctx, fiber.StatusNotFound, "not found")
	default:
		return ResponseError(ctx, fiber.StatusInternalServerError, "internal server error")
	}
}
