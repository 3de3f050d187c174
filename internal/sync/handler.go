package sync

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lowfodlabs/fodsync/internal/classifier"
	"github.com/lowfodlabs/fodsync/pkg/handlers"
	"github.com/lowfodlabs/fodsync/pkg/routes"
)

// Handler provides HTTP endpoints for inspecting and triggering sync cycles.
type Handler struct {
	orch   *Orchestrator
	logger *slog.Logger
}

// RecordsRequest is the JSON body accepted by the targeted submit endpoint.
type RecordsRequest struct {
	IDs []string `json:"ids"`
}

func NewHandler(orch *Orchestrator, logger *slog.Logger) *Handler {
	return &Handler{
		orch:   orch,
		logger: logger.With("handler", "sync"),
	}
}

// Routes returns the route group definition for sync endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/sync",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/status", Handler: h.Status},
			{Method: "POST", Pattern: "/run", Handler: h.Run},
			{Method: "POST", Pattern: "/poll", Handler: h.Poll},
			{Method: "POST", Pattern: "/records", Handler: h.Records},
		},
	}
}

// Status returns the current orchestrator snapshot.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.orch.Status())
}

// Run triggers a submit cycle and responds with the resulting snapshot.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.RunSubmitCycle(r.Context()); err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.orch.Status())
}

// Poll triggers a poll cycle and responds with the resulting snapshot.
func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.RunPollCycle(r.Context()); err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.orch.Status())
}

// Records triggers a submit restricted to the ids in the request body.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	var req RecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if len(req.IDs) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("no record ids provided"))
		return
	}

	if err := h.orch.SubmitByIDs(r.Context(), req.IDs); err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.orch.Status())
}

func mapStatus(err error) int {
	switch {
	case errors.Is(err, classifier.ErrNotConfigured):
		return http.StatusConflict
	case errors.Is(err, ErrStoreUnreachable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
