package api

import (
	"context"
	"net/http"
)

// Lease is a rental agreement between a landlord and a tenant.
type Lease struct {
	ID            string  `json:"id"`
	PropertyID    string  `json:"propertyId"`
	PropertyTitle string  `json:"propertyTitle"`
	TenantID      string  `json:"tenantId"`
	TenantName    string  `json:"tenantName"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate"`
	MonthlyRent   float64 `json:"monthlyRent"`
	Deposit       float64 `json:"deposit"`
	Status        string  `json:"status"`
}

type rawLease struct {
	identity
	Property    ref        `json:"property"`
	Tenant      ref        `json:"tenant"`
	StartDate   flexString `json:"startDate"`
	EndDate     flexString `json:"endDate"`
	MonthlyRent flexFloat  `json:"monthlyRent"`
	Rent        flexFloat  `json:"rent"`
	Deposit     flexFloat  `json:"deposit"`
	Status      flexString `json:"status"`
}

func shapeLease(r rawLease) Lease {
	rent := r.MonthlyRent
	if rent == 0 {
		rent = r.Rent
	}
	return Lease{
		ID:            r.id(),
		PropertyID:    r.Property.ID,
		PropertyTitle: firstNonEmpty(r.Property.Name, "Unknown Property"),
		TenantID:      r.Tenant.ID,
		TenantName:    firstNonEmpty(r.Tenant.Name, "Unknown Tenant"),
		StartDate:     string(r.StartDate),
		EndDate:       string(r.EndDate),
		MonthlyRent:   float64(rent),
		Deposit:       float64(r.Deposit),
		Status:        orDefault(r.Status, "Active"),
	}
}

// List returns the caller's leases.
func (s LeasesService) List(ctx context.Context, token string) ([]Lease, error) {
	op := operation{action: "fetch leases", resource: "Leases"}
	return Guard(ctx, s.inflight, "fetchLeases", op.action, func(ctx context.Context) ([]Lease, error) {
		raws, err := fetchList[rawLease](ctx, s.Client, request{
			method: http.MethodGet,
			path:   s.rolePath("/leases"),
			token:  token,
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		return shapeAll(raws, shapeLease), nil
	})
}
