package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/lodgeledger/trustbooks/internal/ingestion"
	"github.com/lodgeledger/trustbooks/internal/reconciliation"
	"github.com/lodgeledger/trustbooks/internal/repository"
	"github.com/lodgeledger/trustbooks/internal/settlement"
	"github.com/lodgeledger/trustbooks/internal/trust"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	OwnerRepo        *repository.OwnerRepo
	PropertyRepo     *repository.PropertyRepo
	ReservationRepo  *repository.ReservationRepo
	JurisdictionRepo *repository.JurisdictionRepo
	BalanceRepo      *repository.BalanceRepo
	SettingsRepo     *repository.SettingsRepo
	Calculator       *trust.Calculator
	Engine           *reconciliation.Engine
	Tracker          *settlement.Tracker
	Reconciler       *ingestion.Reconciler
	Log              *logrus.Logger
}

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(deps Deps) http.Handler {
	h := &Handlers{
		deps:     deps,
		validate: validator.New(),
		log:      deps.Log.WithField("component", "api"),
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Provider sync.
		r.Post("/sync", h.Sync)

		// Trust balance and reconciliation.
		r.Get("/trust-balance", h.GetTrustBalance)
		r.Post("/reconciliation/snapshots", h.CreateSnapshot)
		r.Get("/reconciliation/snapshots", h.ListSnapshots)
		r.Get("/reconciliation/snapshots/{id}", h.GetSnapshot)

		// Processor balances.
		r.Post("/processor-balances", h.CreateBalanceSnapshot)
		r.Get("/processor-balances/latest", h.GetLatestBalanceSnapshot)
		r.Patch("/processor-balances/{id}/reserve", h.UpdateReserve)

		// Settlement.
		r.Post("/owners/{id}/payouts", h.RecordOwnerPayout)
		r.Post("/jurisdictions/{id}/remittances", h.RecordTaxRemittance)

		// Entities.
		r.Get("/owners", h.ListOwners)
		r.Get("/properties", h.ListProperties)
		r.Get("/reservations", h.ListReservations)
		r.Get("/jurisdictions", h.ListJurisdictions)

		// Dashboard and settings.
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)
	})

	return r
}
