package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lodgeledger/trustbooks/internal/domain"
	"github.com/lodgeledger/trustbooks/internal/provider"
	"github.com/lodgeledger/trustbooks/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	deps     Deps
	validate *validator.Validate
	log      *logrus.Entry
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.WithError(err).Error("encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func (h *Handlers) writeDomainError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	var cErr *domain.ConflictError
	var sErr *domain.SyncError
	switch {
	case errors.As(err, &vErr):
		h.writeError(w, http.StatusUnprocessableEntity, vErr.Error())
	case errors.As(err, &cErr):
		h.writeError(w, http.StatusConflict, cErr.Error())
	case errors.As(err, &sErr):
		h.writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":   sErr.Error(),
			"applied": sErr.Applied,
		})
	default:
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseTimeParam(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func asOfOrNow(s string) time.Time {
	if t := parseTimeParam(s); t != nil {
		return *t
	}
	return time.Now().UTC()
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// --- sync ---

func (h *Handlers) Sync(w http.ResponseWriter, r *http.Request) {
	var batch domain.SyncBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid batch payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&batch); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid batch: "+err.Error())
		return
	}

	result, err := h.deps.Reconciler.Merge(r.Context(), &batch)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// --- trust balance ---

func (h *Handlers) GetTrustBalance(w http.ResponseWriter, r *http.Request) {
	asOf := asOfOrNow(r.URL.Query().Get("as_of"))

	balance, err := h.deps.Calculator.CalculateExpectedBalance(asOf)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, balance)
}

// --- reconciliation snapshots ---

type createSnapshotRequest struct {
	AsOf              string `json:"as_of"`
	VarianceThreshold string `json:"variance_threshold"`
}

func (h *Handlers) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req createSnapshotRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
			return
		}
	}

	settings, err := h.deps.SettingsRepo.GetOrCreate()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	threshold := settings.VarianceAlertThreshold
	if req.VarianceThreshold != "" {
		d, err := decimal.NewFromString(req.VarianceThreshold)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid variance_threshold")
			return
		}
		threshold = d
	}

	snapshot, err := h.deps.Engine.CreateSnapshot(asOfOrNow(req.AsOf), threshold)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, snapshot)
}

func (h *Handlers) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	snapshots, err := h.deps.Engine.ListSnapshots(limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if snapshots == nil {
		snapshots = []domain.ReconciliationSnapshot{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"snapshots": snapshots})
}

func (h *Handlers) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.deps.Engine.GetSnapshot(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

// --- processor balances ---

type createBalanceRequest struct {
	AvailableMinor int64  `json:"available_minor" validate:"gte=0"`
	PendingMinor   int64  `json:"pending_minor" validate:"gte=0"`
	Reserve        string `json:"reserve"`
	SnapshotDate   string `json:"snapshot_date"`
}

func (h *Handlers) CreateBalanceSnapshot(w http.ResponseWriter, r *http.Request) {
	var req createBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	reserve := decimal.Zero
	if req.Reserve != "" {
		d, err := decimal.NewFromString(req.Reserve)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid reserve")
			return
		}
		reserve = d
	}

	snapshot, err := provider.NewBalanceSnapshot(provider.BalanceReport{
		AvailableMinor: req.AvailableMinor,
		PendingMinor:   req.PendingMinor,
	}, reserve, asOfOrNow(req.SnapshotDate))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.deps.BalanceRepo.Insert(snapshot); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, snapshot)
}

func (h *Handlers) GetLatestBalanceSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.deps.BalanceRepo.Latest()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if snapshot == nil {
		h.writeError(w, http.StatusNotFound, "no balance snapshots recorded")
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

type updateReserveRequest struct {
	Reserve string `json:"reserve" validate:"required"`
}

func (h *Handlers) UpdateReserve(w http.ResponseWriter, r *http.Request) {
	var req updateReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	reserve, err := decimal.NewFromString(req.Reserve)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid reserve")
		return
	}

	snapshot, err := h.deps.BalanceRepo.UpdateReserve(chi.URLParam(r, "id"), reserve)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

// --- settlement ---

type settlementRequest struct {
	Date string `json:"date"`
}

func (h *Handlers) RecordOwnerPayout(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
			return
		}
	}

	count, err := h.deps.Tracker.RecordOwnerPayout(chi.URLParam(r, "id"), asOfOrNow(req.Date))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"settled": count})
}

func (h *Handlers) RecordTaxRemittance(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
			return
		}
	}

	count, err := h.deps.Tracker.RecordTaxRemittance(chi.URLParam(r, "id"), asOfOrNow(req.Date))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"settled": count})
}

// --- entities ---

func (h *Handlers) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.deps.OwnerRepo.List()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if owners == nil {
		owners = []domain.Owner{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"owners": owners})
}

func (h *Handlers) ListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.deps.PropertyRepo.List()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if properties == nil {
		properties = []domain.Property{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"properties": properties})
}

func (h *Handlers) ListJurisdictions(w http.ResponseWriter, r *http.Request) {
	jurisdictions, err := h.deps.JurisdictionRepo.List()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if jurisdictions == nil {
		jurisdictions = []domain.TaxJurisdiction{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"jurisdictions": jurisdictions})
}

func (h *Handlers) ListReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ReservationFilter{
		PropertyID: q.Get("property_id"),
		OwnerID:    q.Get("owner_id"),
		From:       parseTimeParam(q.Get("from")),
		To:         parseTimeParam(q.Get("to")),
		Page:       parseIntDefault(q.Get("page"), 1),
		Limit:      parseIntDefault(q.Get("limit"), 50),
	}
	if v := q.Get("cancelled"); v != "" {
		cancelled := v == "true"
		filter.Cancelled = &cancelled
	}

	reservations, total, err := h.deps.ReservationRepo.List(filter)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if reservations == nil {
		reservations = []domain.Reservation{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"reservations": reservations,
		"total":        total,
		"page":         filter.Page,
		"limit":        filter.Limit,
	})
}

// --- dashboard ---

func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	asOf := asOfOrNow(r.URL.Query().Get("as_of"))

	balance, err := h.deps.Calculator.CalculateExpectedBalance(asOf)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	ownerCount, err := h.deps.OwnerRepo.Count()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	propertyCount, err := h.deps.PropertyRepo.Count()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	reservationCount, err := h.deps.ReservationRepo.Count()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	dashboard := map[string]any{
		"owners":               ownerCount,
		"properties":           propertyCount,
		"reservations":         reservationCount,
		"future_deposits":      balance.FutureDeposits,
		"unpaid_owner_payouts": balance.UnpaidOwnerPayouts,
		"unpaid_tax_amount":    balance.UnpaidTaxAmount,
		"expected_balance":     balance.ExpectedBalance,
	}

	snapshots, err := h.deps.Engine.ListSnapshots(1)
	if err == nil && len(snapshots) > 0 {
		dashboard["last_snapshot_status"] = snapshots[0].Status
		dashboard["last_snapshot_status_label"] = snapshots[0].Status.Label()
		dashboard["last_snapshot_status_severity"] = snapshots[0].Status.Severity()
		dashboard["last_snapshot_variance"] = snapshots[0].VarianceAmount
	}

	h.writeJSON(w, http.StatusOK, dashboard)
}

// --- settings ---

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.deps.SettingsRepo.GetOrCreate()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}

type updateSettingsRequest struct {
	DefaultFeePercent      string `json:"default_fee_percent" validate:"required"`
	VarianceAlertThreshold string `json:"variance_alert_threshold" validate:"required"`
	ReminderIntervalDays   int    `json:"reminder_interval_days" validate:"gte=1"`
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	fee, err := decimal.NewFromString(req.DefaultFeePercent)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid default_fee_percent")
		return
	}
	threshold, err := decimal.NewFromString(req.VarianceAlertThreshold)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid variance_alert_threshold")
		return
	}

	settings := domain.AppSettings{
		DefaultFeePercent:      fee,
		VarianceAlertThreshold: threshold,
		ReminderIntervalDays:   req.ReminderIntervalDays,
	}
	if err := h.deps.SettingsRepo.Update(settings); err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}
