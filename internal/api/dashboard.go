package api

import (
	"context"
	"net/http"
)

// DashboardStats are the headline counters shown on a role's dashboard.
type DashboardStats struct {
	TotalProperties    int     `json:"totalProperties"`
	ActiveLeases       int     `json:"activeLeases"`
	PendingPayments    int     `json:"pendingPayments"`
	OpenMaintenance    int     `json:"openMaintenance"`
	UnreadMessages     int     `json:"unreadMessages"`
	MonthlyRevenue     float64 `json:"monthlyRevenue"`
	OccupancyRate      float64 `json:"occupancyRate"`
	NextPaymentDue     string  `json:"nextPaymentDue"`
	NextPaymentAmount  float64 `json:"nextPaymentAmount"`
	OutstandingBalance float64 `json:"outstandingBalance"`
}

// Dashboard is the aggregated summary for the signed-in user.
type Dashboard struct {
	Stats              DashboardStats       `json:"stats"`
	RecentPayments     []Payment            `json:"recentPayments"`
	RecentMessages     []Message            `json:"recentMessages"`
	MaintenanceSummary []MaintenanceRequest `json:"maintenanceRequests"`
	Properties         []Property           `json:"properties"`
}

type rawDashboardStats struct {
	TotalProperties    flexFloat  `json:"totalProperties"`
	ActiveLeases       flexFloat  `json:"activeLeases"`
	PendingPayments    flexFloat  `json:"pendingPayments"`
	OpenMaintenance    flexFloat  `json:"openMaintenance"`
	MaintenanceCount   flexFloat  `json:"maintenanceRequests"`
	UnreadMessages     flexFloat  `json:"unreadMessages"`
	MonthlyRevenue     flexFloat  `json:"monthlyRevenue"`
	TotalRevenue       flexFloat  `json:"totalRevenue"`
	OccupancyRate      flexFloat  `json:"occupancyRate"`
	NextPaymentDue     flexString `json:"nextPaymentDue"`
	NextPaymentAmount  flexFloat  `json:"nextPaymentAmount"`
	OutstandingBalance flexFloat  `json:"outstandingBalance"`
}

type rawDashboard struct {
	Stats              rawDashboardStats       `json:"stats"`
	RecentPayments     rawList[rawPayment]     `json:"recentPayments"`
	RecentMessages     rawList[rawMessage]     `json:"recentMessages"`
	MaintenanceSummary rawList[rawMaintenance] `json:"maintenanceRequests"`
	Properties         rawList[rawProperty]    `json:"properties"`
}

func shapeDashboard(r rawDashboard) Dashboard {
	s := r.Stats
	return Dashboard{
		Stats: DashboardStats{
			TotalProperties:    int(s.TotalProperties),
			ActiveLeases:       int(s.ActiveLeases),
			PendingPayments:    int(s.PendingPayments),
			OpenMaintenance:    int(max(s.OpenMaintenance, s.MaintenanceCount)),
			UnreadMessages:     int(s.UnreadMessages),
			MonthlyRevenue:     float64(max(s.MonthlyRevenue, s.TotalRevenue)),
			OccupancyRate:      float64(s.OccupancyRate),
			NextPaymentDue:     string(s.NextPaymentDue),
			NextPaymentAmount:  float64(s.NextPaymentAmount),
			OutstandingBalance: float64(s.OutstandingBalance),
		},
		RecentPayments:     shapeAll(r.RecentPayments, shapePayment),
		RecentMessages:     shapeAll(r.RecentMessages, shapeMessage),
		MaintenanceSummary: shapeAll(r.MaintenanceSummary, shapeMaintenance),
		Properties:         shapeAll(r.Properties, shapeProperty),
	}
}

// Fetch returns the dashboard summary for the client's role.
func (s DashboardService) Fetch(ctx context.Context, token string) (*Dashboard, error) {
	op := operation{action: "fetch dashboard", resource: "Dashboard"}
	return Guard(ctx, s.inflight, "fetchDashboard", op.action, func(ctx context.Context) (*Dashboard, error) {
		raw, err := fetchOne[rawDashboard](ctx, s.Client, request{
			method: http.MethodGet,
			path:   s.rolePath("/dashboard"),
			token:  token,
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		d := shapeDashboard(raw)
		return &d, nil
	})
}
