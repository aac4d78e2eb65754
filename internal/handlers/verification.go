package handlers

import (
	"hydrofund/internal/services/verification"
	"hydrofund/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type VerificationHandler struct {
	verification verification.Service
}

func NewVerificationHandler(verificationSvc verification.Service) *VerificationHandler {
	return &VerificationHandler{verification: verificationSvc}
}

type setCodeInput struct {
	Code string `json:"code" validate:"required,len=4,numeric"`
}

func (h *VerificationHandler) Capabilities(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	caps, err := h.verification.Capabilities(c.UserContext(), a)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Success(c, caps)
}

func (h *VerificationHandler) Verify(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var proof verification.Proof
	if err := utils.ParseBody(c, &proof); err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.verification.Verify(c.UserContext(), a, proof); err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Success(c, fiber.Map{"verified": true})
}

func (h *VerificationHandler) SetCode(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input setCodeInput
	if err := utils.ParseBody(c, &input); err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.verification.SetCode(c.UserContext(), a, input.Code); err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Success(c, fiber.Map{"has_code": true})
}
