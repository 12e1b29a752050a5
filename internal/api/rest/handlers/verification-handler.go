package handlers

import (
	"context"
	"time"

	"github.com/degreepass/verification_service/internal/dto"
	"github.com/degreepass/verification_service/internal/helper/utils"
	"github.com/degreepass/verification_service/internal/services"
	pkgutils "github.com/degreepass/verification_service/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type VerificationHandler struct {
	svc services.VerificationService
}

func NewVerificationHandler(svc services.VerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) Submit(ctx *fiber.Ctx) error {
	userID, ok := ctx.Locals("userID").(uint)
	if !ok || userID == 0 {
		return utils.ResponseError(ctx, fiber.StatusUnauthorized, "unauthorized")
	}

	var requestBody dto.SubmitRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "please provide valid inputs")
	}

	req, err := h.svc.Submit(userID, requestBody)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}

	// the access code is returned to the student exactly once, here
	return utils.ResponseSuccess(ctx, fiber.StatusCreated, fiber.Map{
		"message": "request submitted",
		"request": dto.SubmitResponse{
			RequestID:   req.ID,
			AccessCode:  req.AccessCode,
			Status:      string(req.Status),
			SubmittedAt: req.CreatedAt.Format(time.RFC3339),
		},
	})
}

func (h *VerificationHandler) ListAll(ctx *fiber.Ctx) error {
	reqs, err := h.svc.ListAll()
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, reqs)
}

// AttachReport accepts either a multipart "file" (uploaded to object
// storage first) or a JSON body with an already-hosted report_url.
func (h *VerificationHandler) AttachReport(ctx *fiber.Ctx) error {
	requestID, err := ctx.ParamsInt("requestID")
	if err != nil || requestID <= 0 {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "invalid request id")
	}

	if file, ferr := ctx.FormFile("file"); ferr == nil && file != nil {
		const maxSize = 12 * 1024 * 1024 // 12MB
		if file.Size > maxSize {
			return utils.ResponseError(ctx, fiber.StatusBadRequest, "file too large (max 12MB)")
		}

		f, err := file.Open()
		if err != nil {
			return utils.ResponseError(ctx, fiber.StatusInternalServerError, "cannot open uploaded file")
		}
		defer f.Close()

		b, err := pkgutils.ReadAllLimit(f, maxSize)
		if err != nil {
			return utils.ResponseError(ctx, fiber.StatusBadRequest, err.Error())
		}

		upCtx, cancel := context.WithTimeout(ctx.Context(), 20*time.Second)
		defer cancel()

		req, err := h.svc.AttachReportFile(upCtx, uint(requestID), file.Filename, b)
		if err != nil {
			return utils.ResponseAppError(ctx, err)
		}
		return utils.ResponseSuccess(ctx, fiber.StatusOK, req)
	}

	var requestBody dto.AttachReportRequest
	if err := ctx.BodyParser(&requestBody); err != nil {
		return utils.ResponseError(ctx, fiber.StatusBadRequest, "report file or report_url is required")
	}

	req, err := h.svc.AttachReport(uint(requestID), requestBody.ReportURL)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, req)
}

func (h *VerificationHandler) VerifyByCode(ctx *fiber.Ctx) error {
	code := ctx.Params("code")

	proj, err := h.svc.LookupByCode(code)
	if err != nil {
		return utils.ResponseAppError(ctx, err)
	}
	return utils.ResponseSuccess(ctx, fiber.StatusOK, proj)
}
