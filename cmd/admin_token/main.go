// Command admin_token issues a signed bearer token for an operator. Accounts
// live in the identity service; this only mints the claims the ledger trusts.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"hydrofund/internal/config"
	"hydrofund/internal/models"
	"hydrofund/internal/utils"
)

func main() {
	config.LoadEnv()

	userID := flag.Uint("user", 0, "user id to embed in the token")
	role := flag.String("role", models.RoleAdmin, "role: admin or user")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	secret := config.GetEnv("JWT_SECRET", "")
	if secret == "" {
		log.Fatal("JWT_SECRET must be set in environment")
	}
	if *userID == 0 {
		log.Fatal("-user is required")
	}

	token, err := utils.GenerateToken(secret, models.Actor{UserID: *userID, Role: *role}, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
