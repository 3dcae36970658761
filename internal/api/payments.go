package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
)

// Payment statuses accepted by the backend.
const (
	PaymentPending = "Pending"
	PaymentPaid    = "Paid"
	PaymentOverdue = "Overdue"
	PaymentPartial = "Partial"
)

// PaymentStatuses lists every valid payment status.
var PaymentStatuses = []string{PaymentPending, PaymentPaid, PaymentOverdue, PaymentPartial}

// Payment is a rent or fee payment record.
type Payment struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	DueDate       string  `json:"dueDate"`
	PaidDate      string  `json:"paidDate"`
	Method        string  `json:"method"`
	Description   string  `json:"description"`
	TenantID      string  `json:"tenantId"`
	TenantName    string  `json:"tenantName"`
	PropertyID    string  `json:"propertyId"`
	PropertyTitle string  `json:"propertyTitle"`
}

type rawPayment struct {
	identity
	Amount      flexFloat  `json:"amount"`
	Status      flexString `json:"status"`
	DueDate     flexString `json:"dueDate"`
	PaidDate    flexString `json:"paidDate"`
	Date        flexString `json:"date"`
	Method      flexString `json:"method"`
	PaymentType flexString `json:"paymentMethod"`
	Description flexString `json:"description"`
	Tenant      ref        `json:"tenant"`
	TenantName  flexString `json:"tenantName"`
	Property    ref        `json:"property"`
}

func shapePayment(r rawPayment) Payment {
	return Payment{
		ID:            r.id(),
		Amount:        float64(r.Amount),
		Status:        orDefault(r.Status, PaymentPending),
		DueDate:       firstNonEmpty(string(r.DueDate), string(r.Date)),
		PaidDate:      string(r.PaidDate),
		Method:        orDefault(flexString(firstNonEmpty(string(r.Method), string(r.PaymentType))), "N/A"),
		Description:   string(r.Description),
		TenantID:      r.Tenant.ID,
		TenantName:    firstNonEmpty(r.Tenant.Name, string(r.TenantName), "Unknown Tenant"),
		PropertyID:    r.Property.ID,
		PropertyTitle: firstNonEmpty(r.Property.Name, "Unknown Property"),
	}
}

// PaymentInput records a new payment.
type PaymentInput struct {
	TenantID    string  `json:"tenantId,omitempty"`
	PropertyID  string  `json:"propertyId,omitempty"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"dueDate,omitempty"`
	Status      string  `json:"status"`
	Method      string  `json:"method,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Validate reports the first field the portal would reject, without a
// network call.
func (in PaymentInput) Validate() error {
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if in.Status == "" {
		return clientErrorf("Payment status is required")
	}
	return validatePaymentStatus(in.Status)
}

// PaymentUpdate replaces the editable fields of a payment.
type PaymentUpdate struct {
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"dueDate,omitempty"`
	Status      string  `json:"status"`
	Method      string  `json:"method,omitempty"`
	Description string  `json:"description,omitempty"`
}

func (in PaymentUpdate) Validate() error {
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	return validatePaymentStatus(in.Status)
}

// ProcessPaymentInput pays an outstanding payment.
type ProcessPaymentInput struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

func (in ProcessPaymentInput) Validate() error {
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(in.Method) == "" {
		return clientErrorf("Payment method is required")
	}
	return nil
}

func validateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return clientErrorf("Payment amount must be a positive number")
	}
	return nil
}

func validatePaymentStatus(status string) error {
	if !oneOf(status, PaymentStatuses) {
		return clientErrorf("Invalid payment status %q: must be one of %s", status, strings.Join(PaymentStatuses, ", "))
	}
	return nil
}

func requireID(id, what string) error {
	if strings.TrimSpace(id) == "" {
		return clientErrorf("%s ID is required", what)
	}
	return nil
}

// List returns the payments visible to the client's role.
func (s PaymentsService) List(ctx context.Context, token string) ([]Payment, error) {
	op := operation{action: "fetch payments", resource: "Payments"}
	return Guard(ctx, s.inflight, "fetchPayments", op.action, func(ctx context.Context) ([]Payment, error) {
		raws, err := fetchList[rawPayment](ctx, s.Client, request{
			method: http.MethodGet,
			path:   s.rolePath("/payments"),
			token:  token,
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		return shapeAll(raws, shapePayment), nil
	})
}

// Record creates a payment record.
func (s PaymentsService) Record(ctx context.Context, token string, in PaymentInput) (*Payment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op := operation{action: "record payment", resource: "Payment"}
	return Guard(ctx, s.inflight, "recordPayment", op.action, func(ctx context.Context) (*Payment, error) {
		raw, err := fetchOne[rawPayment](ctx, s.Client, request{
			method:     http.MethodPost,
			path:       s.rolePath("/payments"),
			token:      token,
			body:       in,
			op:         op,
			idempotent: true,
		})
		if err != nil {
			return nil, err
		}
		p := shapePayment(raw)
		return &p, nil
	})
}

// Update replaces a payment's editable fields.
func (s PaymentsService) Update(ctx context.Context, token, id string, in PaymentUpdate) (*Payment, error) {
	if err := requireID(id, "Payment"); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op := operation{action: "update payment", resource: "Payment"}
	return Guard(ctx, s.inflight, operationKey("updatePayment", id), op.action, func(ctx context.Context) (*Payment, error) {
		raw, err := fetchOne[rawPayment](ctx, s.Client, request{
			method: http.MethodPut,
			path:   s.rolePath(fmt.Sprintf("/payments/%s", url.PathEscape(id))),
			token:  token,
			body:   in,
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		p := shapePayment(raw)
		return &p, nil
	})
}

// UpdateStatus changes only the status of a payment.
func (s PaymentsService) UpdateStatus(ctx context.Context, token, id, status string) (*Payment, error) {
	if err := requireID(id, "Payment"); err != nil {
		return nil, err
	}
	if err := validatePaymentStatus(status); err != nil {
		return nil, err
	}
	op := operation{action: "update payment status", resource: "Payment"}
	return Guard(ctx, s.inflight, operationKey("updatePayment", id), op.action, func(ctx context.Context) (*Payment, error) {
		raw, err := fetchOne[rawPayment](ctx, s.Client, request{
			method: http.MethodPatch,
			path:   s.rolePath(fmt.Sprintf("/payments/%s", url.PathEscape(id))),
			token:  token,
			body:   map[string]string{"status": status},
			op:     op,
		})
		if err != nil {
			return nil, err
		}
		p := shapePayment(raw)
		return &p, nil
	})
}

// Delete removes a payment record.
func (s PaymentsService) Delete(ctx context.Context, token, id string) error {
	if err := requireID(id, "Payment"); err != nil {
		return err
	}
	op := operation{action: "delete payment", resource: "Payment"}
	_, err := Guard(ctx, s.inflight, operationKey("deletePayment", id), op.action, func(ctx context.Context) ([]byte, error) {
		return s.send(ctx, request{
			method: http.MethodDelete,
			path:   s.rolePath(fmt.Sprintf("/payments/%s", url.PathEscape(id))),
			token:  token,
			op:     op,
		})
	})
	return err
}

// Process pays an outstanding payment.
func (s PaymentsService) Process(ctx context.Context, token, id string, in ProcessPaymentInput) (*Payment, error) {
	if err := requireID(id, "Payment"); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	op := operation{action: "process payment", resource: "Payment"}
	return Guard(ctx, s.inflight, operationKey("processPayment", id), op.action, func(ctx context.Context) (*Payment, error) {
		raw, err := fetchOne[rawPayment](ctx, s.Client, request{
			method:     http.MethodPost,
			path:       s.rolePath(fmt.Sprintf("/payments/%s/process", url.PathEscape(id))),
			token:      token,
			body:       in,
			op:         op,
			idempotent: true,
		})
		if err != nil {
			return nil, err
		}
		p := shapePayment(raw)
		return &p, nil
	})
}
