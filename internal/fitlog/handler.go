package fitlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/2beens/ironhub/internal/middleware"
	"github.com/2beens/ironhub/internal/telemetry/tracing"
	"github.com/2beens/ironhub/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) SetupRoutes(
	router *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	writesAllowedPerMin int,
) {
	// the spreadsheet backend gets grumpy under load, slow the writes
	// down before they ever reach it
	rateLimited := middleware.RateLimit(rateLimiter, "fitlog-writes", writesAllowedPerMin)
	router.Handle("/fitlog/entries", rateLimited(http.HandlerFunc(h.HandleAddEntry))).Methods("POST", "OPTIONS").Name("new-entry")
	router.HandleFunc("/fitlog/{owner}/dashboard", h.HandleDashboard).Methods("GET", "OPTIONS").Name("dashboard")
	router.HandleFunc("/fitlog/{owner}/entries", h.HandleListEntries).Methods("GET", "OPTIONS").Name("list-entries")
	router.HandleFunc("/fitlog/{owner}/entries/last", h.HandleDeleteLastEntry).Methods("DELETE", "OPTIONS").Name("delete-last-entry")
	router.HandleFunc("/fitlog/{owner}/plan/{label}", h.HandleDeletePlanEntry).Methods("DELETE", "OPTIONS").Name("delete-plan-entry")
	router.HandleFunc("/fitlog/{owner}", h.HandleDeleteAllEntries).Methods("DELETE", "OPTIONS").Name("delete-owner")
}

func (h *Handler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitlog.addEntry")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var entry Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		log.Errorf("new entry, unmarshal json params: %s", err)
		http.Error(w, "add entry failed", http.StatusBadRequest)
		return
	}

	event, err := h.service.AddEntry(ctx, entry)
	if err != nil {
		log.Errorf("new entry: %s", err)
		writeError(w, err, "add entry failed")
		return
	}

	eventJson, err := json.Marshal(event)
	if err != nil {
		log.Errorf("failed to marshal new entry: %s", err)
		http.Error(w, "error, failed to add new entry", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, eventJson, http.StatusCreated)
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitlog.dashboard")
	defer span.End()

	owner := mux.Vars(r)["owner"]
	dashboard, err := h.service.Dashboard(ctx, owner)
	if err != nil {
		log.Errorf("get dashboard for [%s]: %s", owner, err)
		writeError(w, err, "get dashboard failed")
		return
	}

	dashboardJson, err := json.Marshal(dashboard)
	if err != nil {
		log.Errorf("failed to marshal dashboard: %s", err)
		http.Error(w, "get dashboard failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, dashboardJson)
}

func (h *Handler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitlog.listEntries")
	defer span.End()

	owner := mux.Vars(r)["owner"]
	events, err := h.service.Entries(ctx, owner)
	if err != nil {
		log.Errorf("list entries for [%s]: %s", owner, err)
		writeError(w, err, "list entries failed")
		return
	}
	if events == nil {
		events = []Event{}
	}

	eventsJson, err := json.Marshal(events)
	if err != nil {
		log.Errorf("failed to marshal entries: %s", err)
		http.Error(w, "list entries failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, eventsJson)
}

func (h *Handler) HandleDeleteLastEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitlog.deleteLastEntry")
	defer span.End()

	owner := mux.Vars(r)["owner"]
	if err := h.service.DeleteLastEntry(ctx, owner); err != nil {
		log.Errorf("delete last entry for [%s]: %s", owner, err)
		writeError(w, err, "delete last entry failed")
		return
	}
	pkg.WriteJSONResponseOK(w, `{"deleted":true}`)
}

func (h *Handler) HandleDeleteAllEntries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitlog.deleteAllEntries")
	defer span.End()

	owner := mux.Vars(r)["owner"]
	removed, err := h.service.DeleteAllForOwner(ctx, owner)
	if err != nil {
		log.Errorf("delete all entries for [%s]: %s", owner, err)
		writeError(w, err, "delete entries failed")
		return
	}
	pkg.WriteJSONResponseOK(w, fmt.Sprintf(`{"deleted":%d}`, removed))
}

func (h *Handler) HandleDeletePlanEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fitlog.deletePlanEntry")
	defer span.End()

	vars := mux.Vars(r)
	owner, label := vars["owner"], vars["label"]
	if err := h.service.DeletePlanEntry(ctx, owner, label); err != nil {
		log.Errorf("delete plan entry [%s] for [%s]: %s", label, owner, err)
		writeError(w, err, "delete plan entry failed")
		return
	}
	pkg.WriteJSONResponseOK(w, `{"deleted":true}`)
}

func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrEntryNotFound):
		http.Error(w, "entry not found", http.StatusNotFound)
	case errors.Is(err, ErrRateLimited):
		http.Error(w, "store busy, try again shortly", http.StatusTooManyRequests)
	case errors.Is(err, ErrLostUpdate):
		http.Error(w, "table changed in the meantime, retry", http.StatusConflict)
	default:
		http.Error(w, fallback, http.StatusInternalServerError)
	}
}
