package groups

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Armolas/ajo-savings/pkg/amount"
	"github.com/Armolas/ajo-savings/pkg/api"
	"github.com/Armolas/ajo-savings/pkg/coordinator"
	"github.com/Armolas/ajo-savings/pkg/cycle"
	"github.com/Armolas/ajo-savings/pkg/funding"
	"github.com/Armolas/ajo-savings/pkg/ledger"
	"github.com/Armolas/ajo-savings/pkg/mapping"
	"github.com/Armolas/ajo-savings/pkg/models"
	"github.com/Armolas/ajo-savings/pkg/repository"
	"github.com/Armolas/ajo-savings/pkg/validate"
)

// GroupsHandler holds the dependencies for group-related handlers.
type GroupsHandler struct {
	Repo        *repository.Repository
	Coordinator *coordinator.Coordinator
	View        *funding.View

	// Now is the clock used for cycle derivation. Injectable for tests.
	Now func() time.Time
}

// NewGroupsHandler creates a new GroupsHandler.
func NewGroupsHandler(repo *repository.Repository, coord *coordinator.Coordinator, view *funding.View) *GroupsHandler {
	return &GroupsHandler{Repo: repo, Coordinator: coord, View: view, Now: time.Now}
}

// CreateGroup handles the logic for creating a new savings group.
func (h *GroupsHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var newGroup api.NewGroup
	if err := json.NewDecoder(r.Body).Decode(&newGroup); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	groupID, err := h.Coordinator.CreateGroup(r.Context(), mapping.ToDomainCreateGroupInput(&newGroup))
	if err != nil {
		var fieldErrs validate.Errors
		if errors.As(err, &fieldErrs) {
			writeJSON(w, http.StatusBadRequest, &api.ValidationError{
				Error:  "validation failed",
				Fields: fieldErrs,
			})
			return
		}
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to create group: %v", err))
		return
	}

	writeJSON(w, http.StatusCreated, &api.GroupCreated{GroupID: groupID})
}

// ListGroups handles the logic for listing groups, optionally filtered to the
// groups an address belongs to via ?address=.
func (h *GroupsHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	var (
		domainGroups []*models.Group
		err          error
	)
	if address := r.URL.Query().Get("address"); address != "" {
		if !validate.IsAddress(address) {
			writeError(w, http.StatusBadRequest, "invalid address format")
			return
		}
		domainGroups, err = h.Repo.GroupsForAddress(r.Context(), validate.NormalizeAddress(address))
	} else {
		domainGroups, err = h.Repo.ListGroups(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to list groups: %v", err))
		return
	}

	// Newest groups first.
	sort.Slice(domainGroups, func(i, j int) bool {
		return domainGroups[i].ID > domainGroups[j].ID
	})

	apiGroups := make([]*api.GroupSummary, len(domainGroups))
	for i, g := range domainGroups {
		apiGroups[i] = mapping.ToApiGroupSummary(g)
	}
	writeJSON(w, http.StatusOK, apiGroups)
}

// GetGroup handles the logic for the full group view: record, members, token
// metadata and the derived cycle and funding state.
func (h *GroupsHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupIDFromURL(w, r)
	if !ok {
		return
	}

	view, err := h.Repo.FetchGroupView(r.Context(), groupID)
	if err != nil {
		writeFetchError(w, err)
		return
	}

	now := h.Now()
	cycleStatus, err := cycle.Status(view.Group, now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to derive cycle state: %v", err))
		return
	}
	fundingStatus, err := h.View.Status(r.Context(), view.Group, cycleStatus.Index)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to derive funding state: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, mapping.ToApiGroupDetail(view, cycleStatus, fundingStatus))
}

// GetCycle handles the logic for the cycle-status view of a group.
func (h *GroupsHandler) GetCycle(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupIDFromURL(w, r)
	if !ok {
		return
	}

	group, err := h.Repo.FetchGroup(r.Context(), groupID)
	if err != nil {
		writeFetchError(w, err)
		return
	}

	cycleStatus, err := cycle.Status(group, h.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to derive cycle state: %v", err))
		return
	}

	status := mapping.ToApiCycleStatus(cycleStatus)
	writeJSON(w, http.StatusOK, &status)
}

// GetContribution handles the logic for a member's standing in the current
// cycle. The answer comes from the ledger's own counters.
func (h *GroupsHandler) GetContribution(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupIDFromURL(w, r)
	if !ok {
		return
	}
	address := chi.URLParam(r, "address")
	if !validate.IsAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid address format")
		return
	}
	member := validate.NormalizeAddress(address)

	group, err := h.Repo.FetchGroup(r.Context(), groupID)
	if err != nil {
		writeFetchError(w, err)
		return
	}

	index, err := cycle.CurrentIndex(group, h.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to derive cycle state: %v", err))
		return
	}

	contributed, err := h.View.HasContributed(r.Context(), groupID, member, index)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to read contribution state: %v", err))
		return
	}
	paid, err := h.View.ContributionPaid(r.Context(), groupID, member, index)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to read contribution amount: %v", err))
		return
	}

	meta, err := h.Repo.FetchTokenMetadata(r.Context(), group.TokenAddress)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to resolve token metadata: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, &api.Contribution{
		GroupID:         groupID,
		Member:          member,
		CycleIndex:      index,
		HasContributed:  contributed,
		AmountPaid:      paid.String(),
		AmountFormatted: amount.Format(paid, meta.Decimals),
	})
}

func groupIDFromURL(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "id")
	groupID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid group id %q", raw))
		return 0, false
	}
	return groupID, true
}

func writeFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidGroup):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusBadGateway, fmt.Sprintf("failed to fetch group: %v", err))
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
