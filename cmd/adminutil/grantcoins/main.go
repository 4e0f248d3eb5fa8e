// Operator utility: credit coins to an account directly, bypassing the
// HTTP surface. Used to seed balances and settle support cases.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/sudo-init-do/arenahub/internal/config"
	"github.com/sudo-init-do/arenahub/internal/db"
	"github.com/sudo-init-do/arenahub/internal/store"
)

func main() {
	accountFlag := flag.String("account", "", "Account id to credit")
	amountFlag := flag.Int64("amount", 0, "Coin amount to credit (positive)")
	operatorFlag := flag.String("operator", "", "Operator account id recorded on the grant")
	flag.Parse()

	accountID, err := uuid.Parse(*accountFlag)
	if err != nil {
		log.Fatalf("usage: grantcoins -account <uuid> -amount <coins> -operator <uuid>")
	}
	operatorID, err := uuid.Parse(*operatorFlag)
	if err != nil {
		log.Fatalf("invalid operator id: %v", err)
	}
	if *amountFlag <= 0 {
		log.Fatalf("amount must be positive, got %d", *amountFlag)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	coins, err := store.New(pool).GrantCoins(ctx, accountID, *amountFlag, operatorID)
	if err != nil {
		log.Fatalf("failed to grant coins: %v", err)
	}

	fmt.Printf("Credited %d coins to %s; new balance %d.\n", *amountFlag, accountID, coins)
}
