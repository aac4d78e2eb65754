// Package routes defines the API routing configuration.
// It wires services to handlers and applies the auth, admin and
// command-rate middleware.
package routes

import (
	"time"

	"hydrofund/internal/config"
	"hydrofund/internal/handlers"
	"hydrofund/internal/middleware"
	"hydrofund/internal/repositories"
	"hydrofund/internal/repositories/cache"
	"hydrofund/internal/services/dashboard"
	"hydrofund/internal/services/deposit"
	"hydrofund/internal/services/ledger"
	"hydrofund/internal/services/notification"
	"hydrofund/internal/services/order"
	"hydrofund/internal/services/referral"
	"hydrofund/internal/services/verification"
	"hydrofund/internal/services/withdrawal"

	"github.com/gofiber/fiber/v2"
)

// Dependencies are the process-wide collaborators. Cache, Publisher, Proofs
// and OTP may be nil.
type Dependencies struct {
	Store     repositories.Store
	Cache     *cache.CacheService
	Publisher notification.Publisher
	Proofs    deposit.ProofStore
	OTP       verification.OTPProvider
	Ledger    config.LedgerConfig
	JWTSecret string
	RateLimit float64
	RateBurst int
	Clock     func() time.Time
}

// Services is the command surface shared by the HTTP layer and tooling.
type Services struct {
	Ledger       ledger.Service
	Orders       order.Service
	Withdrawals  withdrawal.Service
	Deposits     deposit.Service
	Referrals    referral.Service
	Dashboard    dashboard.Service
	Verification verification.Service
}

// NewServices builds every service over one store.
func NewServices(deps Dependencies) Services {
	var walletCache ledger.WalletCache
	if deps.Cache != nil {
		walletCache = deps.Cache
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	ledgerSvc := ledger.NewService(deps.Store, walletCache, nil, ledger.WithClock(clock))

	depositOpts := []deposit.Option{deposit.WithClock(clock)}
	if deps.Proofs != nil {
		depositOpts = append(depositOpts, deposit.WithProofStore(deps.Proofs))
	}
	var verificationOpts []verification.Option
	if deps.OTP != nil {
		verificationOpts = append(verificationOpts, verification.WithOTPProvider(deps.OTP))
	}

	return Services{
		Ledger:       ledgerSvc,
		Orders:       order.NewService(deps.Store, ledgerSvc, deps.Publisher, deps.Ledger, order.WithClock(clock)),
		Withdrawals:  withdrawal.NewService(deps.Store, ledgerSvc, deps.Publisher, deps.Ledger, withdrawal.WithClock(clock)),
		Deposits:     deposit.NewService(deps.Store, ledgerSvc, deps.Publisher, deps.Ledger, depositOpts...),
		Referrals:    referral.NewService(deps.Store, ledgerSvc, deps.Publisher, referral.WithClock(clock)),
		Dashboard:    dashboard.NewService(deps.Store, ledgerSvc, dashboard.WithClock(clock)),
		Verification: verification.NewService(deps.Store, verificationOpts...),
	}
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) *middleware.CommandLimiter {
	svc := NewServices(deps)

	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Cache)
	walletHandler := handlers.NewWalletHandler(svc.Ledger)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	withdrawalHandler := handlers.NewWithdrawalHandler(svc.Withdrawals, svc.Verification)
	depositHandler := handlers.NewDepositHandler(svc.Deposits)
	referralHandler := handlers.NewReferralHandler(svc.Referrals)
	verificationHandler := handlers.NewVerificationHandler(svc.Verification)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)

	auth := middleware.NewAuthMiddleware(deps.JWTSecret)
	limiter := middleware.NewCommandLimiter(deps.RateLimit, deps.RateBurst)
	command := limiter.Handler

	app.Get("/health", healthHandler.HealthCheck)

	api := app.Group("/api", auth.Handler)

	api.Get("/wallet", walletHandler.GetWallet)
	api.Get("/wallet/entries", walletHandler.ListEntries)
	api.Get("/dashboard", dashboardHandler.GetUserDashboard)

	api.Post("/orders", command, orderHandler.CreateOrder)
	api.Get("/orders", orderHandler.ListOrders)
	api.Get("/orders/:id", orderHandler.GetOrder)
	api.Post("/orders/:id/claim", command, orderHandler.ClaimOrder)

	api.Get("/withdrawals/quote", withdrawalHandler.Quote)
	api.Post("/withdrawals", command, withdrawalHandler.RequestWithdrawal)
	api.Get("/withdrawals", withdrawalHandler.ListWithdrawals)
	api.Get("/withdrawals/:id", withdrawalHandler.GetWithdrawal)
	api.Post("/withdrawals/:id/cancel", command, withdrawalHandler.CancelWithdrawal)

	api.Post("/deposits", command, depositHandler.SubmitDeposit)
	api.Get("/deposits", depositHandler.ListDeposits)
	api.Get("/deposits/:id", depositHandler.GetDeposit)

	api.Get("/referrals", referralHandler.ListReferrals)
	api.Post("/referrals/:referredId/claim", command, referralHandler.ClaimReferralBonus)
	api.Get("/bonus", referralHandler.GetAccountBonus)
	api.Post("/bonus/claim", command, referralHandler.ClaimAccountBonus)

	api.Get("/verify/capabilities", verificationHandler.Capabilities)
	api.Post("/verify", command, verificationHandler.Verify)
	api.Post("/verify/code", command, verificationHandler.SetCode)

	// Admin routes
	admin := api.Group("/admin", middleware.AdminAuthMiddleware)
	admin.Get("/dashboard", dashboardHandler.GetAdminDashboard)
	admin.Get("/cache/stats", healthHandler.CacheStats)
	admin.Get("/withdrawals", withdrawalHandler.ListByStatus)
	admin.Post("/withdrawals/:id/approve", withdrawalHandler.ApproveWithdrawal)
	admin.Post("/withdrawals/:id/reject", withdrawalHandler.RejectWithdrawal)
	admin.Get("/deposits", depositHandler.ListByStatus)
	admin.Post("/deposits/approve", depositHandler.ApproveDeposits)
	admin.Post("/deposits/:id/approve", depositHandler.ApproveDeposit)
	admin.Post("/referrals", referralHandler.RegisterReferral)
	admin.Post("/referrals/:referrerId/:referredId/expire", referralHandler.ExpireReferralBonus)
	admin.Post("/bonuses", referralHandler.GrantAccountBonus)
	admin.Post("/reconcile", orderHandler.Reconcile)

	return limiter
}
