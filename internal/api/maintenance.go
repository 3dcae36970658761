package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Maintenance request statuses.
const (
	MaintenanceOpen       = "Open"
	MaintenanceInProgress = "In Progress"
	MaintenanceCompleted  = "Completed"
	MaintenanceCancelled  = "Cancelled"
)

// MaintenanceStatuses lists every valid maintenance status.
var MaintenanceStatuses = []string{MaintenanceOpen, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled}

// MaintenancePriorities lists the accepted priorities.
var MaintenancePriorities = []string{"Low", "Medium", "High", "Urgent"}

// MaintenanceRequest is a repair or service request for a property.
type MaintenanceRequest struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Details       string   `json:"details"`
	Address       string   `json:"address"`
	Status        string   `json:"status"`
	Priority      string   `json:"priority"`
	PropertyID    string   `json:"propertyId"`
	PropertyTitle string   `json:"propertyTitle"`
	TenantName    string   `json:"tenantName"`
	Images        []string `json:"images"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

type rawMaintenance struct {
	identity
	Type        flexString  `json:"type"`
	Details     flexString  `json:"details"`
	Description flexString  `json:"description"`
	Address     flexString  `json:"address"`
	Status      flexString  `json:"status"`
	Priority    flexString  `json:"priority"`
	Property    ref         `json:"property"`
	Tenant      ref         `json:"tenant"`
	Images      flexStrings `json:"images"`
	CreatedAt   flexString  `json:"createdAt"`
	UpdatedAt   flexString  `json:"updatedAt"`
}

func shapeMaintenance(r rawMaintenance) MaintenanceRequest {
	return MaintenanceRequest{
		ID:            r.id(),
		Type:          orDefault(r.Type, "General"),
		Details:       firstNonEmpty(string(r.Details), string(r.Description)),
		Address:       orDefault(r.Address, "No address provided"),
		Status:        orDefault(r.Status, MaintenanceOpen),
		Priority:      orDefault(r.Priority, "Medium"),
		PropertyID:    r.Property.ID,
		PropertyTitle: firstNonEmpty(r.Property.Name, "Unknown Property"),
		TenantName:    firstNonEmpty(r.Tenant.Name, "Unknown Tenant"),
		Images:        r.Images.slice(),
		CreatedAt:     string(r.CreatedAt),
		UpdatedAt:     string(r.UpdatedAt),
	}
}

// MaintenanceInput creates or replaces a maintenance request.
type MaintenanceInput struct {
	Type       string `json:"type"`
	Details    string `json:"details"`
	Address    string `json:"address"`
	Status     string `json:"status,omitempty"`
	Priority   string `json:"priority,omitempty"`
	PropertyID string `json:"propertyId,omitempty"`
}

func (in MaintenanceInput) Validate() error {
	if strings.TrimSpace(in.Type) == "" || strings.TrimSpace(in.Details) == "" || strings.TrimSpace(in.Address) == "" {
		return clientErrorf("Type, details, and address are required")
	}
	if in.Status != "" && !oneOf(in.Status, MaintenanceStatuses) {
		return clientErrorf("Invalid maintenance status %q: must be one of %s", in.Status, strings.Join(MaintenanceStatuses, ", "))
	}
	if in.Priority != "" && !oneOf(in.Priority, MaintenancePriorities) {
		return clientErrorf("Invalid priority %q: must be one of %s", in.Priority, strings.Join(MaintenancePriorities, ", "))
	}
	return nil
}

// List returns the caller's maintenance requests.
func (s MaintenanceService) List(ctx context.Context, token string) ([]MaintenanceRequest, error) {
	op := operation{action: "fetch maintenance requests", resource: "Maintenance requests"}
	return Guard(ctx, s.inflight, "fetchMaintenanceRequests", op.action, func(ctx context.Context) ([]MaintenanceRequest, error) {
		raws, err := fetchList[rawMaintenance](ctx, s.Client, request{
			method: http.MethodGet,
			path:   s.rolePath("/maintenance"),
			token:  token,
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		return shapeAll(raws, shapeMaintenance), nil
	})
}

// Get returns one maintenance request.
func (s MaintenanceService) Get(ctx context.Context, token, id string) (*MaintenanceRequest, error) {
	if err := requireID(id, "Maintenance request"); err != nil {
		return nil, err
	}
	op := operation{action: "fetch maintenance request", resource: "Maintenance request"}
	return Guard(ctx, s.inflight, operationKey("fetchMaintenanceRequest", id), op.action, func(ctx context.Context) (*MaintenanceRequest, error) {
		return s.one(ctx, request{
			method: http.MethodGet,
			path:   s.rolePath(fmt.Sprintf("/maintenance/%s", url.PathEscape(id))),
			token:  token,
			op:     op,
		})
	})
}

// Submit files a new maintenance request. Status defaults to Open.
func (s MaintenanceService) Submit(ctx context.Context, token string, in MaintenanceInput) (*MaintenanceRequest, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = MaintenanceOpen
	}
	op := operation{action: "submit maintenance request", resource: "Maintenance request"}
	return Guard(ctx, s.inflight, "submitMaintenanceRequest", op.action, func(ctx context.Context) (*MaintenanceRequest, error) {
		return s.one(ctx, request{
			method: http.MethodPost,
			path:   s.rolePath("/maintenance"),
			token:  token,
			body:   in,
			op:     op,
		})
	})
}

// Update replaces a maintenance request.
func (s MaintenanceService) Update(ctx context.Context, token, id string, in MaintenanceInput) (*MaintenanceRequest, error) {
	if err := requireID(id, "Maintenance request"); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op := operation{action: "update maintenance request", resource: "Maintenance request"}
	return Guard(ctx, s.inflight, operationKey("updateMaintenanceRequest", id), op.action, func(ctx context.Context) (*MaintenanceRequest, error) {
		return s.one(ctx, request{
			method: http.MethodPut,
			path:   s.rolePath(fmt.Sprintf("/maintenance/%s", url.PathEscape(id))),
			token:  token,
			body:   in,
			op:     op,
		})
	})
}

// Cancel withdraws a maintenance request.
func (s MaintenanceService) Cancel(ctx context.Context, token, id string) error {
	if err := requireID(id, "Maintenance request"); err != nil {
		return err
	}
	op := operation{action: "cancel maintenance request", resource: "Maintenance request"}
	_, err := Guard(ctx, s.inflight, operationKey("cancelMaintenanceRequest", id), op.action, func(ctx context.Context) ([]byte, error) {
		return s.send(ctx, request{
			method: http.MethodDelete,
			path:   s.rolePath(fmt.Sprintf("/maintenance/%s", url.PathEscape(id))),
			token:  token,
			op:     op,
		})
	})
	return err
}

func (s MaintenanceService) one(ctx context.Context, req request) (*MaintenanceRequest, error) {
	raw, err := fetchOne[rawMaintenance](ctx, s.Client, req)
	if err != nil {
		return nil, err
	}
	m := shapeMaintenance(raw)
	return &m, nil
}
