package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/acu-erp/acu-erp/internal/access"
	"github.com/acu-erp/acu-erp/internal/app"
	"github.com/acu-erp/acu-erp/internal/inventory"
	"github.com/acu-erp/acu-erp/internal/platform/db"
)

func main() {
	uid := flag.String("uid", "", "workspace to seed; defaults to SEEDED_ADMIN_UID")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed bearer token")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *uid == "" {
		*uid = cfg.SeededAdminUID
	}
	if *uid == "" {
		log.Fatal("no workspace: pass -uid or set SEEDED_ADMIN_UID")
	}

	ctx := context.Background()
	logger := app.NewLogger(cfg)
	backends, conns, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer conns.Close(logger)

	fmt.Println("→ Migrating schema...")
	if err := db.Migrate(ctx, conns.Pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	services := app.NewServices(cfg, backends, logger, nil)

	fmt.Println("→ Resolving profile...")
	profile, err := services.Access.Resolve(ctx, access.Principal{UID: *uid, Name: "Seed Admin"})
	if err != nil {
		log.Fatalf("resolve profile: %v", err)
	}
	fmt.Printf("  %s (%s)\n", profile.UID, profile.Role)

	fmt.Println("→ Seeding upstream modules...")
	if err := seedModules(ctx, services, *uid); err != nil {
		log.Fatalf("seed modules: %v", err)
	}

	fmt.Println("→ Seeding stock ledger...")
	for _, draft := range []inventory.Draft{
		{ItemName: "Hex Bolt M8", ItemCode: "HB-M8", BatchNo: "B-01", StockQty: 40},
		{ItemName: "Flat Washer", ItemCode: "FW-10", StockQty: 120},
	} {
		rec, err := services.Stock.Submit(ctx, *uid, draft)
		if err != nil {
			log.Fatalf("submit %s: %v", draft.ItemCode, err)
		}
		fmt.Printf("  %s closing stock %v\n", rec.ItemCode, rec.ClosingStock)
	}

	token, err := services.Verifier.Issue(access.Principal{UID: *uid}, *tokenTTL)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
	fmt.Println("Bearer token:", token)
}

func seedModules(ctx context.Context, s *app.Services, uid string) error {
	steps := []struct {
		name   string
		create func(ctx context.Context, workspace string, record json.RawMessage) error
		record string
	}{
		{"item master", s.Items.Create, `{"itemName":"Hex Bolt M8","itemCode":"HB-M8"}`},
		{"item master", s.Items.Create, `{"itemName":"Flat Washer","itemCode":"FW-10"}`},
		{"indent", s.Procurement.Indents.Create, `{"indentNo":"IND-01","items":[{"itemCode":"HB-M8","qty":100}]}`},
		{"purchase order", s.Procurement.Orders.Create, `{"poNo":"PO-01","supplierName":"Acme Fasteners","items":[{"itemName":"Hex Bolt M8","itemCode":"HB-M8","qty":100}]}`},
		{"psir", s.Procurement.PSIRs.Create, `{"poNo":"PO-01","batchNo":"B-01","items":[{"itemName":"Hex Bolt M8","itemCode":"HB-M8","qtyReceived":100,"okQty":95}]}`},
		{"vendor dept", s.Vendor.Dept.Create, `{"materialPurchasePoNo":"PO-01","dcNo":"DC-01","items":[{"itemCode":"HB-M8","qty":20,"okQty":18}]}`},
	}
	for _, step := range steps {
		if err := step.create(ctx, uid, json.RawMessage(step.record)); err != nil {
			return errors.Join(fmt.Errorf("seed %s", step.name), err)
		}
	}
	return nil
}
