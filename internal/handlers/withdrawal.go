package handlers

import (
	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/services/verification"
	"hydrofund/internal/services/withdrawal"
	"hydrofund/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type WithdrawalHandler struct {
	withdrawals  withdrawal.Service
	verification verification.Service
}

func NewWithdrawalHandler(withdrawals withdrawal.Service, verificationSvc verification.Service) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals, verification: verificationSvc}
}

type requestWithdrawalInput struct {
	Amount       decimal.Decimal     `json:"amount"`
	Phone        string              `json:"phone" validate:"required,max=20"`
	Verification *verification.Proof `json:"verification"`
}

type cancelWithdrawalInput struct {
	Reason string `json:"reason" validate:"max=500"`
}

type rejectWithdrawalInput struct {
	Reason string                `json:"reason" validate:"required,max=500"`
	Code   *models.RejectionCode `json:"code" validate:"omitempty,oneof=insufficient_funds suspicious_activity invalid_account other"`
}

// Quote shows the fee breakdown before the user commits.
func (h *WithdrawalHandler) Quote(c *fiber.Ctx) error {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		return utils.RespondError(c, apperrors.ErrInvalidAmount.WithMessage("amount must be a decimal number"))
	}
	return utils.Success(c, h.withdrawals.Quote(amount))
}

func (h *WithdrawalHandler) RequestWithdrawal(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input requestWithdrawalInput
	if err := utils.ParseBody(c, &input); err != nil {
		return utils.RespondError(c, err)
	}
	if err := h.verification.Guard(c.UserContext(), a, input.Verification); err != nil {
		return utils.RespondError(c, err)
	}

	w, err := h.withdrawals.Request(c.UserContext(), a, withdrawal.Request{Amount: input.Amount, Phone: input.Phone})
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Created(c, w)
}

func (h *WithdrawalHandler) CancelWithdrawal(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	// the body is optional
	var input cancelWithdrawalInput
	if len(c.Body()) > 0 {
		if err := utils.ParseBody(c, &input); err != nil {
			return utils.RespondError(c, err)
		}
	}

	w, err := h.withdrawals.Cancel(c.UserContext(), a, c.Params("id"), input.Reason)
	return utils.RespondResult(c, w, err)
}

func (h *WithdrawalHandler) GetWithdrawal(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.withdrawals.Get(c.UserContext(), a, c.Params("id"))
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Success(c, w)
}

func (h *WithdrawalHandler) ListWithdrawals(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, 20)
	list, total, err := h.withdrawals.ListByUser(c.UserContext(), a, p.Limit, p.Offset)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Paginated(c, list, p, total)
}

// ListByStatus is the admin queue, oldest first. Defaults to pending.
func (h *WithdrawalHandler) ListByStatus(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	status := models.WithdrawalStatus(c.Query("status", string(models.WithdrawalPending)))
	p := utils.GetPagination(c, 1, 50)
	list, total, err := h.withdrawals.ListByStatus(c.UserContext(), a, status, p.Limit, p.Offset)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Paginated(c, list, p, total)
}

func (h *WithdrawalHandler) ApproveWithdrawal(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	w, err := h.withdrawals.Approve(c.UserContext(), a, c.Params("id"))
	return utils.RespondResult(c, w, err)
}

func (h *WithdrawalHandler) RejectWithdrawal(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input rejectWithdrawalInput
	if err := utils.ParseBody(c, &input); err != nil {
		return utils.RespondError(c, err)
	}

	w, err := h.withdrawals.Reject(c.UserContext(), a, c.Params("id"), withdrawal.Rejection{Reason: input.Reason, Code: input.Code})
	return utils.RespondResult(c, w, err)
}
