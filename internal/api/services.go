package api

// Service accessors group Client methods by resource.
// Each service embeds *Client so endpoints share its session and registry.

type AuthService struct{ *Client }

type ApplicationsService struct{ *Client }

type DashboardService struct{ *Client }

type DocumentsService struct{ *Client }

type LeasesService struct{ *Client }

type MaintenanceService struct{ *Client }

type MessagesService struct{ *Client }

type NotificationsService struct{ *Client }

type PaymentsService struct{ *Client }

type ProfileService struct{ *Client }

type PropertiesService struct{ *Client }

type SupportService struct{ *Client }

func (c *Client) Auth() AuthService {
	return AuthService{c}
}

func (c *Client) Applications() ApplicationsService {
	return ApplicationsService{c}
}

func (c *Client) Dashboard() DashboardService {
	return DashboardService{c}
}

func (c *Client) Documents() DocumentsService {
	return DocumentsService{c}
}

func (c *Client) Leases() LeasesService {
	return LeasesService{c}
}

func (c *Client) Maintenance() MaintenanceService {
	return MaintenanceService{c}
}

func (c *Client) Messages() MessagesService {
	return MessagesService{c}
}

func (c *Client) Notifications() NotificationsService {
	return NotificationsService{c}
}

func (c *Client) Payments() PaymentsService {
	return PaymentsService{c}
}

func (c *Client) Profile() ProfileService {
	return ProfileService{c}
}

func (c *Client) Properties() PropertiesService {
	return PropertiesService{c}
}

func (c *Client) Support() SupportService {
	return SupportService{c}
}

func shapeAll[R, T any](raws []R, shape func(R) T) []T {
	out := make([]T, 0, len(raws))
	for _, r := range raws {
		out = append(out, shape(r))
	}
	return out
}
