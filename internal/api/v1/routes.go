// Package v1 provides the catalog API v1 endpoints for layer discovery.
package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridianmaps/catalog-server/internal/api/common"
	"github.com/meridianmaps/catalog-server/internal/catalog"
	"github.com/meridianmaps/catalog-server/internal/logging"
	"github.com/meridianmaps/catalog-server/internal/service"
	"github.com/meridianmaps/catalog-server/internal/status"
	"github.com/meridianmaps/catalog-server/internal/sync/coordinator"
	"github.com/meridianmaps/catalog-server/internal/sync/state"
)

// GroupRefresher schedules forced group refreshes. It is satisfied by the
// refresh coordinator; a nil refresher disables the refresh endpoint.
type GroupRefresher interface {
	ForceRefresh(ctx context.Context, groupName string) error
}

// GroupSummary is one entry in the group listing.
type GroupSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MemberCount int    `json:"memberCount"`
}

// GroupListResponse is the response for the group listing endpoint.
type GroupListResponse struct {
	Groups []GroupSummary `json:"groups"`
	Count  int            `json:"count"`
}

// MemberListResponse is the response for the group members endpoint.
type MemberListResponse struct {
	Members []catalog.Member `json:"members"`
	Count   int              `json:"count"`
}

// GroupStatusResponse describes the load state of one group. ErrorTitle and
// ErrorMessage carry the user-facing failure report verbatim, including its
// HTML markup.
type GroupStatusResponse struct {
	Phase           string     `json:"phase"`
	Message         string     `json:"message,omitempty"`
	ErrorTitle      string     `json:"errorTitle,omitempty"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
	LastAttempt     *time.Time `json:"lastAttempt,omitempty"`
	AttemptCount    int        `json:"attemptCount,omitempty"`
	LastLoadTime    *time.Time `json:"lastLoadTime,omitempty"`
	MemberCount     int        `json:"memberCount"`
	SkippedCount    int        `json:"skippedCount"`
	RefreshInterval string     `json:"refreshInterval,omitempty"`
}

// StatusListResponse is the response for the catalog-wide status endpoint.
type StatusListResponse struct {
	Groups map[string]GroupStatusResponse `json:"groups"`
}

// RefreshResponse acknowledges an accepted forced refresh.
type RefreshResponse struct {
	Status string `json:"status"`
	Group  string `json:"group"`
}

// Routes handles HTTP requests for catalog API v1 endpoints.
type Routes struct {
	service   service.CatalogService
	stateSvc  state.GroupStateService
	refresher GroupRefresher
}

// NewRoutes creates a new Routes instance with the given dependencies.
func NewRoutes(svc service.CatalogService, stateSvc state.GroupStateService, refresher GroupRefresher) *Routes {
	return &Routes{
		service:   svc,
		stateSvc:  stateSvc,
		refresher: refresher,
	}
}

// Router creates and configures the HTTP router for catalog API v1 endpoints.
func Router(svc service.CatalogService, stateSvc state.GroupStateService, refresher GroupRefresher) http.Handler {
	routes := NewRoutes(svc, stateSvc, refresher)

	r := chi.NewRouter()

	r.Get("/catalog", routes.getCatalog)
	r.Get("/groups", routes.listGroups)
	r.Get("/status", routes.listStatuses)
	r.Route("/groups/{groupName}", func(r chi.Router) {
		r.Get("/", routes.getGroup)
		r.Get("/members", routes.getGroupMembers)
		r.Get("/status", routes.getGroupStatus)
		r.Post("/refresh", routes.refreshGroup)
	})

	return r
}

// getCatalog handles GET /api/v1/catalog. It returns the full published tree.
func (routes *Routes) getCatalog(w http.ResponseWriter, r *http.Request) {
	cat, err := routes.service.GetCatalog(r.Context())
	if err != nil {
		routes.writeServiceError(w, r, err, "Failed to get catalog")
		return
	}

	common.WriteJSONResponse(w, cat, http.StatusOK)
}

// listGroups handles GET /api/v1/groups
func (routes *Routes) listGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := routes.service.ListGroups(r.Context())
	if err != nil {
		routes.writeServiceError(w, r, err, "Failed to list groups")
		return
	}

	summaries := make([]GroupSummary, len(groups))
	for i, group := range groups {
		summaries[i] = GroupSummary{
			Name:        group.Name,
			Description: group.Description,
			MemberCount: group.ItemCount(),
		}
	}

	common.WriteJSONResponse(w, GroupListResponse{
		Groups: summaries,
		Count:  len(summaries),
	}, http.StatusOK)
}

// getGroup handles GET /api/v1/groups/{groupName}. It returns the full group
// subtree, nested sub-groups included.
func (routes *Routes) getGroup(w http.ResponseWriter, r *http.Request) {
	group, ok := routes.lookupGroup(w, r)
	if !ok {
		return
	}

	common.WriteJSONResponse(w, group, http.StatusOK)
}

// getGroupMembers handles GET /api/v1/groups/{groupName}/members
func (routes *Routes) getGroupMembers(w http.ResponseWriter, r *http.Request) {
	group, ok := routes.lookupGroup(w, r)
	if !ok {
		return
	}

	members := group.Members
	if members == nil {
		members = []catalog.Member{}
	}

	common.WriteJSONResponse(w, MemberListResponse{
		Members: members,
		Count:   len(members),
	}, http.StatusOK)
}

// listStatuses handles GET /api/v1/status
func (routes *Routes) listStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := routes.stateSvc.ListLoadStatuses(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error(err, "Failed to list load statuses")
		common.WriteErrorResponse(w, "Failed to list group statuses", http.StatusInternalServerError)
		return
	}

	resp := StatusListResponse{
		Groups: make(map[string]GroupStatusResponse, len(statuses)),
	}
	for name, loadStatus := range statuses {
		resp.Groups[name] = statusResponse(loadStatus)
	}

	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// getGroupStatus handles GET /api/v1/groups/{groupName}/status
func (routes *Routes) getGroupStatus(w http.ResponseWriter, r *http.Request) {
	groupName, err := common.GetAndValidateURLParam(r, "groupName")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	loadStatus, err := routes.stateSvc.GetLoadStatus(r.Context(), groupName)
	if err != nil {
		if errors.Is(err, state.ErrGroupStateNotFound) {
			common.WriteErrorResponse(w, "Group not found", http.StatusNotFound)
			return
		}
		logging.FromContext(r.Context()).Error(err, "Failed to get load status", "group", groupName)
		common.WriteErrorResponse(w, "Failed to get group status", http.StatusInternalServerError)
		return
	}

	common.WriteJSONResponse(w, statusResponse(loadStatus), http.StatusOK)
}

// refreshGroup handles POST /api/v1/groups/{groupName}/refresh. The load runs
// in the background; 202 only means it was accepted.
func (routes *Routes) refreshGroup(w http.ResponseWriter, r *http.Request) {
	groupName, err := common.GetAndValidateURLParam(r, "groupName")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if routes.refresher == nil {
		common.WriteErrorResponse(w, "Refresh coordinator is not running", http.StatusServiceUnavailable)
		return
	}

	if err := routes.refresher.ForceRefresh(r.Context(), groupName); err != nil {
		switch {
		case errors.Is(err, coordinator.ErrUnknownGroup):
			common.WriteErrorResponse(w, "Group not found", http.StatusNotFound)
		case errors.Is(err, coordinator.ErrNotStarted):
			common.WriteErrorResponse(w, "Refresh coordinator is not running", http.StatusServiceUnavailable)
		default:
			logging.FromContext(r.Context()).Error(err, "Failed to schedule refresh", "group", groupName)
			common.WriteErrorResponse(w, "Failed to schedule refresh", http.StatusInternalServerError)
		}
		return
	}

	common.WriteJSONResponse(w, RefreshResponse{
		Status: "refresh scheduled",
		Group:  groupName,
	}, http.StatusAccepted)
}

// lookupGroup resolves the groupName URL parameter to a published group,
// writing the error response itself when the group cannot be served.
func (routes *Routes) lookupGroup(w http.ResponseWriter, r *http.Request) (*catalog.Group, bool) {
	groupName, err := common.GetAndValidateURLParam(r, "groupName")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	group, err := routes.service.GetGroup(r.Context(), groupName)
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			common.WriteErrorResponse(w, "Group not found", http.StatusNotFound)
			return nil, false
		}
		routes.writeServiceError(w, r, err, "Failed to get group")
		return nil, false
	}
	return group, true
}

// writeServiceError maps service errors onto HTTP responses. A not-ready
// service yields 503 so load balancers keep probing instead of caching an
// empty catalog.
func (*Routes) writeServiceError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, service.ErrNotReady) {
		common.WriteErrorResponse(w, "Catalog not ready: no data loaded yet", http.StatusServiceUnavailable)
		return
	}
	logging.FromContext(r.Context()).Error(err, message)
	common.WriteErrorResponse(w, message, http.StatusInternalServerError)
}

// statusResponse maps a load status onto its API representation. ErrorTitle
// and ErrorMessage pass through verbatim.
func statusResponse(loadStatus *status.LoadStatus) GroupStatusResponse {
	if loadStatus == nil {
		return GroupStatusResponse{}
	}
	return GroupStatusResponse{
		Phase:           string(loadStatus.Phase),
		Message:         loadStatus.Message,
		ErrorTitle:      loadStatus.ErrorTitle,
		ErrorMessage:    loadStatus.ErrorMessage,
		LastAttempt:     loadStatus.LastAttempt,
		AttemptCount:    loadStatus.AttemptCount,
		LastLoadTime:    loadStatus.LastLoadTime,
		MemberCount:     loadStatus.MemberCount,
		SkippedCount:    loadStatus.SkippedCount,
		RefreshInterval: loadStatus.RefreshInterval,
	}
}
