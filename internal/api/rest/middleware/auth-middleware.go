package middleware

import (
	"strings"

	"github.com/degreepass/verification_service/internal/helper"
	"github.com/degreepass/verification_service/internal/helper/utils"
	"github.com/degreepass/verification_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

func AuthMiddleware(auth helper.Auth) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		// 1) try cookie first
		tokenStr := strings.TrimSpace(ctx.Cookies("access_token"))

		// 2) fallback to Authorization header
		if tokenStr == "" {
			tokenStr = strings.TrimSpace(ctx.Get("Authorization"))
		}

		user, err := auth.VerifyToken(tokenStr)
		if err != nil {
			return utils.ResponseAppError(ctx, err)
		}

		ctx.Locals("userID", uint(user.UserID))
		ctx.Locals("user", user)
		return ctx.Next()
	}
}

// AdminOnly checks the role against the database rather than trusting
// the token claim, so a demoted admin is locked out immediately.
func AdminOnly(accountSvc services.AccountService) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID, ok := ctx.Locals("userID").(uint)
		if !ok || userID == 0 {
			return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
		}

		isAdmin, err := accountSvc.IsAdmin(userID)
		if err != nil {
			return utils.ResponseAppError(ctx, err)
		}
		if !isAdmin {
			return utils.ResponseError(ctx, fiber.StatusForbidden, "admin only")
		}

		return ctx.Next()
	}
}
