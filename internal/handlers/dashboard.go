package handlers

import (
	"hydrofund/internal/services/dashboard"
	"hydrofund/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboardService dashboard.Service
}

func NewDashboardHandler(dashboardService dashboard.Service) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// GetUserDashboard returns dashboard data for regular users
func (h *DashboardHandler) GetUserDashboard(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	stats, err := h.dashboardService.GetUserDashboard(c.UserContext(), a)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Success(c, stats)
}

// GetAdminDashboard returns the platform aggregates by status
func (h *DashboardHandler) GetAdminDashboard(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	stats, err := h.dashboardService.GetAdminDashboard(c.UserContext(), a)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Success(c, stats)
}
