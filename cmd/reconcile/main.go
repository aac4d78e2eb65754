// Command reconcile repairs orders whose claim credit committed without the
// claimed flag. It is safe to run repeatedly.
package main

import (
	"context"
	"log"

	"hydrofund/internal/config"
	"hydrofund/internal/repositories"
	"hydrofund/internal/routes"
)

func main() {
	config.LoadEnv()

	db, err := repositories.InitDB(config.LoadDBConfig())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Printf("⚠️ Failed to close database connection: %v", err)
			}
		}
	}()

	svcs := routes.NewServices(routes.Dependencies{
		Store:  repositories.NewStore(db),
		Ledger: config.LoadLedgerConfig(),
	})

	report, err := svcs.Orders.Reconcile(context.Background())
	if err != nil {
		log.Fatalf("Reconcile failed: %v", err)
	}
	log.Printf("✅ Scanned %d unclaimed orders, repaired %d", report.Scanned, len(report.Repaired))
	for _, id := range report.Repaired {
		log.Printf("repaired order %s", id)
	}
}
