package handlers

import (
	"fmt"
	"strings"

	apperrors "hydrofund/internal/errors"
	"hydrofund/internal/models"
	"hydrofund/internal/services/deposit"
	"hydrofund/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const maxProofSize = 5 << 20

type DepositHandler struct {
	deposits deposit.Service
}

func NewDepositHandler(deposits deposit.Service) *DepositHandler {
	return &DepositHandler{deposits: deposits}
}

type submitDepositInput struct {
	Amount decimal.Decimal `json:"amount" form:"amount"`
	Phone  string          `json:"phone" form:"phone" validate:"required,max=20"`
	Code   string          `json:"code" form:"code" validate:"required,max=64"`
}

type approveDepositsInput struct {
	IDs []string `json:"ids" validate:"required,min=1,max=100,dive,required"`
}

// SubmitDeposit accepts JSON or a multipart form with an optional "proof"
// image.
func (h *DepositHandler) SubmitDeposit(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	req := deposit.SubmitRequest{}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		amount, err := decimal.NewFromString(c.FormValue("amount"))
		if err != nil {
			return utils.RespondError(c, apperrors.ErrInvalidAmount.WithMessage("amount must be a decimal number"))
		}
		input := submitDepositInput{Amount: amount, Phone: c.FormValue("phone"), Code: c.FormValue("code")}
		if err := utils.ValidateStruct(&input); err != nil {
			return utils.RespondError(c, err)
		}
		req = deposit.SubmitRequest{Amount: input.Amount, Phone: input.Phone, Code: input.Code}

		if fh, err := c.FormFile("proof"); err == nil {
			if fh.Size > maxProofSize {
				return utils.RespondError(c, apperrors.ErrInvalidRequest.WithMessage("proof must be at most %d MB", maxProofSize>>20))
			}
			f, err := fh.Open()
			if err != nil {
				return utils.RespondError(c, apperrors.ErrInvalidRequest.WithMessage("unreadable proof file"))
			}
			defer f.Close()
			req.Proof = &deposit.Proof{Name: fh.Filename, Body: f}
		}
	} else {
		var input submitDepositInput
		if err := utils.ParseBody(c, &input); err != nil {
			return utils.RespondError(c, err)
		}
		req = deposit.SubmitRequest{Amount: input.Amount, Phone: input.Phone, Code: input.Code}
	}

	d, err := h.deposits.Submit(c.UserContext(), a, req)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Created(c, d)
}

func (h *DepositHandler) GetDeposit(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	d, err := h.deposits.Get(c.UserContext(), a, c.Params("id"))
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Success(c, d)
}

func (h *DepositHandler) ListDeposits(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, 20)
	list, total, err := h.deposits.ListByUser(c.UserContext(), a, p.Limit, p.Offset)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Paginated(c, list, p, total)
}

func (h *DepositHandler) ListByStatus(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	status := models.DepositStatus(c.Query("status", string(models.DepositPending)))
	p := utils.GetPagination(c, 1, 50)
	list, total, err := h.deposits.ListByStatus(c.UserContext(), a, status, p.Limit, p.Offset)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Paginated(c, list, p, total)
}

func (h *DepositHandler) ApproveDeposit(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	d, err := h.deposits.ApproveOne(c.UserContext(), a, c.Params("id"))
	return utils.RespondResult(c, d, err)
}

// ApproveDeposits settles a batch; the response lists one outcome per id.
func (h *DepositHandler) ApproveDeposits(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input approveDepositsInput
	if err := utils.ParseBody(c, &input); err != nil {
		return utils.RespondError(c, err)
	}

	results, err := h.deposits.Approve(c.UserContext(), a, input.IDs...)
	if err != nil {
		return utils.RespondError(c, err)
	}

	summary := make(map[deposit.Outcome]int)
	for _, r := range results {
		summary[r.Outcome]++
	}
	return utils.Success(c, fiber.Map{
		"results": results,
		"summary": summary,
		"message": fmt.Sprintf("%d approved, %d already completed, %d failed",
			summary[deposit.OutcomeApproved], summary[deposit.OutcomeAlreadyCompleted], summary[deposit.OutcomeFailed]),
	})
}
