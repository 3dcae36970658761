package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Rental application statuses.
const (
	ApplicationPending  = "Pending"
	ApplicationApproved = "Approved"
	ApplicationRejected = "Rejected"
)

// ApplicationStatuses lists every valid application status.
var ApplicationStatuses = []string{ApplicationPending, ApplicationApproved, ApplicationRejected}

// Application is a tenant's rental application for a property.
type Application struct {
	ID            string  `json:"id"`
	PropertyID    string  `json:"propertyId"`
	PropertyTitle string  `json:"propertyTitle"`
	ApplicantID   string  `json:"applicantId"`
	ApplicantName string  `json:"applicantName"`
	Status        string  `json:"status"`
	Message       string  `json:"message"`
	MoveInDate    string  `json:"moveInDate"`
	Income        float64 `json:"income"`
	CreatedAt     string  `json:"createdAt"`
}

type rawApplication struct {
	identity
	Property   ref        `json:"property"`
	Applicant  ref        `json:"applicant"`
	Tenant     ref        `json:"tenant"`
	Status     flexString `json:"status"`
	Message    flexString `json:"message"`
	MoveInDate flexString `json:"moveInDate"`
	Income     flexFloat  `json:"income"`
	CreatedAt  flexString `json:"createdAt"`
}

func shapeApplication(r rawApplication) Application {
	applicant := r.Applicant
	if applicant.ID == "" && applicant.Name == "" {
		applicant = r.Tenant
	}
	return Application{
		ID:            r.id(),
		PropertyID:    r.Property.ID,
		PropertyTitle: firstNonEmpty(r.Property.Name, "Unknown Property"),
		ApplicantID:   applicant.ID,
		ApplicantName: firstNonEmpty(applicant.Name, "Unknown Applicant"),
		Status:        orDefault(r.Status, ApplicationPending),
		Message:       string(r.Message),
		MoveInDate:    string(r.MoveInDate),
		Income:        float64(r.Income),
		CreatedAt:     string(r.CreatedAt),
	}
}

// ApplicationInput applies for a property.
type ApplicationInput struct {
	PropertyID string  `json:"propertyId"`
	Message    string  `json:"message,omitempty"`
	MoveInDate string  `json:"moveInDate,omitempty"`
	Income     float64 `json:"income,omitempty"`
}

func (in ApplicationInput) Validate() error {
	if strings.TrimSpace(in.PropertyID) == "" {
		return clientErrorf("Property ID is required")
	}
	if in.Income < 0 {
		return clientErrorf("Income cannot be negative")
	}
	return nil
}

// List returns applications sent (tenant) or received (landlord).
func (s ApplicationsService) List(ctx context.Context, token string) ([]Application, error) {
	op := operation{action: "fetch applications", resource: "Applications"}
	return Guard(ctx, s.inflight, "fetchApplications", op.action, func(ctx context.Context) ([]Application, error) {
		raws, err := fetchList[rawApplication](ctx, s.Client, request{
			method: http.MethodGet,
			path:   s.rolePath("/applications"),
			token:  token,
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		return shapeAll(raws, shapeApplication), nil
	})
}

// Submit applies for a property.
func (s ApplicationsService) Submit(ctx context.Context, token string, in ApplicationInput) (*Application, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op := operation{action: "submit application", resource: "Application"}
	return Guard(ctx, s.inflight, "submitApplication", op.action, func(ctx context.Context) (*Application, error) {
		return s.one(ctx, request{
			method: http.MethodPost,
			path:   s.rolePath("/applications"),
			token:  token,
			body:   in,
			op:     op,
		})
	})
}

// UpdateStatus approves or rejects an application.
func (s ApplicationsService) UpdateStatus(ctx context.Context, token, id, status string) (*Application, error) {
	if err := requireID(id, "Application"); err != nil {
		return nil, err
	}
	if !oneOf(status, ApplicationStatuses) {
		return nil, clientErrorf("Invalid application status %q: must be one of %s", status, strings.Join(ApplicationStatuses, ", "))
	}
	op := operation{action: "update application", resource: "Application"}
	return Guard(ctx, s.inflight, operationKey("updateApplication", id), op.action, func(ctx context.Context) (*Application, error) {
		return s.one(ctx, request{
			method: http.MethodPatch,
			path:   s.rolePath(fmt.Sprintf("/applications/%s", url.PathEscape(id))),
			token:  token,
			body:   map[string]string{"status": status},
			op:     op,
		})
	})
}

func (s ApplicationsService) one(ctx context.Context, req request) (*Application, error) {
	raw, err := fetchOne[rawApplication](ctx, s.Client, req)
	if err != nil {
		return nil, err
	}
	a := shapeApplication(raw)
	return &a, nil
}
