package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/ironhub/internal/identity"
	"github.com/2beens/ironhub/internal/telemetry/tracing"
	"github.com/2beens/ironhub/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// TokenHeader carries the session token on every session-aware request.
const TokenHeader = "X-IRONHUB-SESSION"

type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{
		manager: manager,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/session", h.HandleStart).Methods("POST", "OPTIONS").Name("start-session")
	router.HandleFunc("/session", h.HandleGet).Methods("GET", "OPTIONS").Name("get-session")
	router.HandleFunc("/session", h.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-session")
	router.HandleFunc("/session", h.HandleEnd).Methods("DELETE", "OPTIONS").Name("end-session")
}

func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.start")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("start session, unmarshal json params: %s", err)
		http.Error(w, "start session failed", http.StatusBadRequest)
		return
	}

	s, err := h.manager.Start(ctx, params.Name)
	if err != nil {
		if errors.Is(err, identity.ErrEmptyName) {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		log.Errorf("start session: %s", err)
		http.Error(w, "start session failed", http.StatusInternalServerError)
		return
	}

	h.writeSession(w, s, http.StatusCreated)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.get")
	defer span.End()

	s, err := h.manager.Get(ctx, r.Header.Get(TokenHeader))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "no session", http.StatusUnauthorized)
			return
		}
		log.Errorf("get session: %s", err)
		http.Error(w, "get session failed", http.StatusInternalServerError)
		return
	}

	h.writeSession(w, s, http.StatusOK)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.update")
	defer span.End()

	s, err := h.manager.Get(ctx, r.Header.Get(TokenHeader))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "no session", http.StatusUnauthorized)
			return
		}
		log.Errorf("update session: %s", err)
		http.Error(w, "update session failed", http.StatusInternalServerError)
		return
	}

	var params struct {
		OnboardingStep *int    `json:"onboardingStep"`
		LastExercise   *string `json:"lastExercise"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Errorf("update session, unmarshal json params: %s", err)
		http.Error(w, "update session failed", http.StatusBadRequest)
		return
	}

	if params.OnboardingStep != nil {
		s.OnboardingStep = *params.OnboardingStep
	}
	if params.LastExercise != nil {
		s.LastExercise = *params.LastExercise
	}

	if err := h.manager.Update(ctx, s); err != nil {
		log.Errorf("update session: %s", err)
		http.Error(w, "update session failed", http.StatusInternalServerError)
		return
	}

	h.writeSession(w, s, http.StatusOK)
}

func (h *Handler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.end")
	defer span.End()

	if err := h.manager.End(ctx, r.Header.Get(TokenHeader)); err != nil {
		log.Errorf("end session: %s", err)
		http.Error(w, "end session failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, `{"loggedOut":true}`)
}

func (h *Handler) writeSession(w http.ResponseWriter, s Session, statusCode int) {
	sessionJson, err := json.Marshal(s)
	if err != nil {
		log.Errorf("failed to marshal session: %s", err)
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sessionJson, statusCode)
}
