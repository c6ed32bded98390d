package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/lodgeledger/trustbooks/internal/api"
	"github.com/lodgeledger/trustbooks/internal/config"
	"github.com/lodgeledger/trustbooks/internal/domain"
	"github.com/lodgeledger/trustbooks/internal/ingestion"
	"github.com/lodgeledger/trustbooks/internal/reconciliation"
	"github.com/lodgeledger/trustbooks/internal/repository"
	"github.com/lodgeledger/trustbooks/internal/settlement"
	"github.com/lodgeledger/trustbooks/internal/trust"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg)

	log.Infof("initializing database at %s", cfg.DBPath)
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	defer db.Close()

	// Repositories.
	ownerRepo := repository.NewOwnerRepo(db)
	propertyRepo := repository.NewPropertyRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	jurisdictionRepo := repository.NewJurisdictionRepo(db)
	balanceRepo := repository.NewBalanceRepo(db)
	snapshotRepo := repository.NewSnapshotRepo(db)
	settingsRepo := repository.NewSettingsRepo(db)
	settlementRepo := repository.NewSettlementRepo(db)

	// Resolve the settings row once; the engines receive plain values.
	settings, err := settingsRepo.GetOrCreate()
	if err != nil {
		log.Fatalf("failed to load settings: %v", err)
	}

	// Services.
	calculator := trust.NewCalculator(reservationRepo, propertyRepo, ownerRepo,
		balanceRepo, settings.DefaultFeePercent, log)
	engine := reconciliation.NewEngine(calculator, snapshotRepo, balanceRepo, log)
	tracker := settlement.NewTracker(settlementRepo, ownerRepo, jurisdictionRepo, log)
	reconciler := ingestion.NewReconciler(db, settings.DefaultFeePercent, log)

	// Seed demo data if the store is empty.
	count, err := reservationRepo.Count()
	if err != nil {
		log.Fatalf("failed to count reservations: %v", err)
	}
	if count == 0 {
		if err := seedBatch(reconciler); err != nil {
			log.Warnf("failed to seed demo data: %v", err)
		}
	} else {
		log.Infof("database already has %d reservations, skipping seed", count)
	}

	router := api.NewRouter(api.Deps{
		OwnerRepo:        ownerRepo,
		PropertyRepo:     propertyRepo,
		ReservationRepo:  reservationRepo,
		JurisdictionRepo: jurisdictionRepo,
		BalanceRepo:      balanceRepo,
		SettingsRepo:     settingsRepo,
		Calculator:       calculator,
		Engine:           engine,
		Tracker:          tracker,
		Reconciler:       reconciler,
		Log:              log,
	})

	log.Infof("trustbooks reconciliation server listening on http://localhost:%s", cfg.Port)
	log.Infof("API base: http://localhost:%s/api/v1", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func seedBatch(reconciler *ingestion.Reconciler) error {
	candidates := []string{
		"testdata/sync_batch.json",
		filepath.Join(".", "testdata", "sync_batch.json"),
	}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", "sync_batch.json"),
			filepath.Join(dir, "..", "..", "testdata", "sync_batch.json"),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find sync_batch.json in any candidate path: %w", loadErr)
	}

	var batch domain.SyncBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("unmarshal sync batch: %w", err)
	}

	if _, err := reconciler.Merge(context.Background(), &batch); err != nil {
		return fmt.Errorf("merge seed batch: %w", err)
	}
	return nil
}
