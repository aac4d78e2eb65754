package handlers

import (
	"hydrofund/internal/services/order"
	"hydrofund/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	orders order.Service
}

func NewOrderHandler(orders order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input order.CreateOrderRequest
	if err := utils.ParseBody(c, &input); err != nil {
		return utils.RespondError(c, err)
	}

	view, err := h.orders.CreateOrder(c.UserContext(), a, input)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Created(c, view)
}

// ClaimOrder is idempotent: a repeat returns the first claim's payload.
func (h *OrderHandler) ClaimOrder(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	result, err := h.orders.ClaimOrder(c.UserContext(), a, c.Params("id"))
	return utils.RespondResult(c, result, err)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	view, err := h.orders.GetOrder(c.UserContext(), a, c.Params("id"))
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Success(c, view)
}

func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, 20)
	views, total, err := h.orders.ListOrders(c.UserContext(), a, p.Limit, p.Offset)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Paginated(c, views, p, total)
}

// Reconcile repairs orders left credited but unflagged (admin only).
func (h *OrderHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.orders.Reconcile(c.UserContext())
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Success(c, report)
}
