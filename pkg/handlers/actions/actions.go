package actions

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Armolas/ajo-savings/pkg/api"
	"github.com/Armolas/ajo-savings/pkg/coordinator"
	"github.com/Armolas/ajo-savings/pkg/ledger"
)

// ActionsHandler holds the dependencies for the two mutating group actions.
type ActionsHandler struct {
	Coordinator *coordinator.Coordinator
}

// NewActionsHandler creates a new ActionsHandler.
func NewActionsHandler(coord *coordinator.Coordinator) *ActionsHandler {
	return &ActionsHandler{Coordinator: coord}
}

// Contribute handles the logic for paying into a group's current cycle.
func (h *ActionsHandler) Contribute(w http.ResponseWriter, r *http.Request) {
	groupID, req, ok := decodeAction(w, r)
	if !ok {
		return
	}

	txRef, err := h.Coordinator.Contribute(r.Context(), &coordinator.ContributeRequest{
		GroupID:       groupID,
		From:          req.From,
		ExpectedCycle: req.ExpectedCycle,
	})
	if err != nil {
		writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, &api.ActionAccepted{GroupID: groupID, TxRef: txRef})
}

// Claim handles the logic for paying a cycle's pool out to its recipient.
func (h *ActionsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	groupID, req, ok := decodeAction(w, r)
	if !ok {
		return
	}

	txRef, err := h.Coordinator.Claim(r.Context(), &coordinator.ClaimRequest{
		GroupID:       groupID,
		From:          req.From,
		ExpectedCycle: req.ExpectedCycle,
	})
	if err != nil {
		writeActionError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, &api.ActionAccepted{GroupID: groupID, TxRef: txRef})
}

func decodeAction(w http.ResponseWriter, r *http.Request) (uint64, *api.ActionRequest, bool) {
	raw := chi.URLParam(r, "id")
	groupID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid group id %q", raw))
		return 0, nil, false
	}

	var req api.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return 0, nil, false
	}
	if req.From == "" {
		writeError(w, http.StatusBadRequest, "from address is required")
		return 0, nil, false
	}
	return groupID, &req, true
}

// writeActionError maps domain errors onto HTTP statuses: precondition
// violations that changed state elsewhere are conflicts, violations of the
// rules themselves are unprocessable, and everything downstream is a bad
// gateway.
func writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrAlreadyContributed),
		errors.Is(err, ledger.ErrAlreadyClaimed),
		errors.Is(err, coordinator.ErrRequestInFlight),
		errors.Is(err, coordinator.ErrStaleData):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrNotAMember),
		errors.Is(err, ledger.ErrNotRecipient),
		errors.Is(err, ledger.ErrNotFullyFunded),
		errors.Is(err, coordinator.ErrContributionWindowClosed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, fmt.Sprintf("failed to write response: %v", err), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, &api.Error{Error: msg})
}
