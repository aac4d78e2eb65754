package handlers

import (
	"hydrofund/internal/services/ledger"
	"hydrofund/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	ledger ledger.Service
}

func NewWalletHandler(ledgerSvc ledger.Service) *WalletHandler {
	return &WalletHandler{ledger: ledgerSvc}
}

// GetWallet returns the caller's balance snapshot, opening an empty wallet
// on first use.
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	wallet, err := h.ledger.EnsureWallet(c.UserContext(), a.UserID)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Success(c, wallet)
}

// ListEntries is the caller's ledger history, newest first.
func (h *WalletHandler) ListEntries(c *fiber.Ctx) error {
	a, err := utils.GetActor(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	p := utils.GetPagination(c, 1, 20)
	entries, total, err := h.ledger.ListEntries(c.UserContext(), a.UserID, p.Limit, p.Offset)
	if err != nil {
		return utils.RespondError(c, err)
	}
	return utils.Paginated(c, entries, p, total)
}
