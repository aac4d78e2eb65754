package handlers

import (
	"strconv"

	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/services/referral"
	"hydrofund/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ReferralHandler struct {
	referrals referral.Service
}

func NewReferralHandler(referrals referral.Service) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

type registerReferralInput struct {
	ReferrerID     uint            `json:"referrer_id" validate:"required"`
	ReferredUserID uint            `json:"referred_user_id" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
}

type grantAccountBonusInput struct {
	UserID uint            `json:"user_id" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

func userIDParam(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.ErrInvalidRequest.WithMessage("%s must be a user id", name)
	}
	return uint(id), nil
}

func (h *ReferralHandler) ListReferrals(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, 20)
	list, total, err := h.referrals.ListReferrals(c.UserContext(), a, p.Limit, p.Offset)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Paginated(c, list, p, total)
}

// ClaimReferralBonus pays the caller for the referred user in the path.
func (h *ReferralHandler) ClaimReferralBonus(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	referredID, err := userIDParam(c, "referredId")
	if err != nil {
		return utils.RespondError(c, err)
	}

	bonus, err := h.referrals.ClaimReferralBonus(c.UserContext(), a, a.UserID, referredID)
	return utils.RespondResult(c, bonus, err)
}

func (h *ReferralHandler) GetAccountBonus(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	bonus, err := h.referrals.GetAccountBonus(c.UserContext(), a)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Success(c, bonus)
}

func (h *ReferralHandler) ClaimAccountBonus(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	bonus, err := h.referrals.ClaimAccountBonus(c.UserContext(), a, a.UserID)
	return utils.RespondResult(c, bonus, err)
}

func (h *ReferralHandler) RegisterReferral(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input registerReferralInput
	if err := utils.ParseBody(c, &input); err != nil {
		return utils.RespondError(c, err)
	}

	bonus, err := h.referrals.RegisterReferral(c.UserContext(), a, input.ReferrerID, input.ReferredUserID, input.Amount)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Created(c, bonus)
}

func (h *ReferralHandler) GrantAccountBonus(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input grantAccountBonusInput
	if err := utils.ParseBody(c, &input); err != nil {
		return utils.RespondError(c, err)
	}

	bonus, err := h.referrals.GrantAccountBonus(c.UserContext(), a, input.UserID, input.Amount)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Created(c, bonus)
}

func (h *ReferralHandler) ExpireReferralBonus(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	referrerID, err := userIDParam(c, "referrerId")
	if err != nil {
		return utils.RespondError(c, err)
	}
	referredID, err := userIDParam(c, "referredId")
	if err != nil {
		return utils.RespondError(c, err)
	}

	bonus, err := h.referrals.ExpireReferralBonus(c.UserContext(), a, referrerID, referredID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Success(c, bonus)
}
