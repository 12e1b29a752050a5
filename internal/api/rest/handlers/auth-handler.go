package handlers

import (
	"github.com/degreepass/verification_service/internal/dto"
	"github.com/degreepass/verification_service/internal/helper/utils"
	"github.com/degreepass/verification_service/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	svc services.AccountService
}

func NewAuthHandler(svc services.AccountService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Signup(ctx *fiber.Ctx) error {
	var requestBody dto.SignupRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	if err := h.svc.Register(requestBody); err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	return utils.ResponseSuccess(ctx, fiber.StatusCreated, fiber.Map{
		"message": "registered successfully, awaiting admin approval",
	})
}

func (h *AuthHandler) Login(ctx *fiber.Ctx) error {
	var requestBody dto.LoginRequest

	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "email and password are required")
	}

	res, err := h.svc.Login(requestBody)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, res)
}

func (h *AuthHandler) Me(ctx *fiber.Ctx) error {
	userID, ok := ctx.Locals("userID").(uint)
	if !ok || userID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	acc, err := h.svc.GetAccount(userID)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	return utils.ResponseSuccess(ctx, fiber.StatusOK, dto.AccountSummary{
		ID:         acc.ID,
		Name:       acc.Name,
		Email:      acc.Email,
		Role:       acc.Role,
		IsApproved: acc.IsApproved,
	})
}

func (h *AuthHandler) ListPendingUsers(ctx *fiber.Ctx) error {
	accounts, err := h.svc.ListPendingStudents()
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, accounts)
}

func (h *AuthHandler) ListAllUsers(ctx *fiber.Ctx) error {
	accounts, err := h.svc.ListAll()
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, accounts)
}

func (h *AuthHandler) ApproveUser(ctx *fiber.Ctx) error {
	userID, err := ctx.ParamsInt("userID")
	if err != nil || userID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid user id")
	}

	acc, err := h.svc.Approve(uint(userID))
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, acc)
}

func (h *AuthHandler) DeleteUser(ctx *fiber.Ctx) error {
	userID, err := ctx.ParamsInt("userID")
	if err != nil || userID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.svc.Remove(uint(userID)); err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, fiber.Map{
		"message": "user deleted",
	})
}
