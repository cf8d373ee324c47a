// Package debts implements the debt ledger: employee-owed balances reduced by
// payments, including automatic payroll deductions.
package debts

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// Type classifies why the debt exists.
type Type string

const (
	TypeAdvance Type = "ADVANCE"
	TypeLoan    Type = "LOAN"
	TypeOther   Type = "OTHER"
)

// Valid reports whether the type is one of the known values.
func (t Type) Valid() bool {
	switch t {
	case TypeAdvance, TypeLoan, TypeOther:
		return true
	}
	return false
}

// Status is derived from the balance: CLOSED once it reaches zero.
// A closed debt never reopens automatically.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// PaymentMethod classifies how a debt payment was made.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodTransfer PaymentMethod = "TRANSFER"
	// MethodPayroll marks automatic deductions made by a payroll run.
	MethodPayroll PaymentMethod = "PAYROLL"
)

// Valid reports whether the method is one of the known values.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodTransfer, MethodPayroll:
		return true
	}
	return false
}

// Debt is one employee-owed balance. OriginalAmount never changes; Balance
// only decreases, through payments appended under the debt row lock.
type Debt struct {
	entity.BaseDocument

	EmployeeID id.ID  `db:"employee_id" json:"employeeId"`
	Type       Type   `db:"type" json:"type"`
	Note       string `db:"note" json:"note,omitempty"`

	OriginalAmount types.MinorUnits `db:"original_amount" json:"originalAmount"`
	Balance        types.MinorUnits `db:"balance" json:"balance"`
	Status         Status           `db:"status" json:"status"`

	Payments []*Payment `db:"-" json:"payments,omitempty"`
}

// IsClosed reports whether the debt has been fully paid.
func (d *Debt) IsClosed() bool {
	return d.Status == StatusClosed
}

// Payment is one immutable debt payment record.
type Payment struct {
	ID        id.ID            `db:"id" json:"id"`
	DebtID    id.ID            `db:"debt_id" json:"debtId"`
	Amount    types.MinorUnits `db:"amount" json:"amount"`
	Method    PaymentMethod    `db:"method" json:"method"`
	Note      string           `db:"note" json:"note,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	CreatedBy string           `db:"created_by" json:"createdBy"`
}

// CreateInput carries the parameters of one debt creation.
type CreateInput struct {
	EmployeeID id.ID
	Type       Type
	Amount     types.MinorUnits
	Note       string
}

// Validate checks the input before any row is touched.
func (in CreateInput) Validate(_ context.Context) error {
	if id.IsNil(in.EmployeeID) {
		return apperror.NewValidation("employee is required").WithDetail("field", "employeeId")
	}
	if !in.Type.Valid() {
		return apperror.NewInvalidInput("unknown debt type").
			WithDetail("field", "type").
			WithDetail("value", string(in.Type))
	}
	if !in.Amount.IsPositive() {
		return apperror.NewInvalidInput("amount must be positive").
			WithDetail("field", "amount").
			WithDetail("value", in.Amount.String())
	}
	return nil
}

// PaymentInput carries the parameters of one debt payment.
type PaymentInput struct {
	DebtID id.ID
	Amount types.MinorUnits
	Method PaymentMethod
	Note   string
}

// Validate checks the input before any lock is taken.
func (in PaymentInput) Validate(_ context.Context) error {
	if id.IsNil(in.DebtID) {
		return apperror.NewValidation("debt is required").WithDetail("field", "debtId")
	}
	if !in.Amount.IsPositive() {
		return apperror.NewInvalidInput("amount must be positive").
			WithDetail("field", "amount").
			WithDetail("value", in.Amount.String())
	}
	if !in.Method.Valid() {
		return apperror.NewInvalidInput("unknown payment method").
			WithDetail("field", "method").
			WithDetail("value", string(in.Method))
	}
	return nil
}

// ListFilter narrows debt listing.
type ListFilter struct {
	EmployeeID id.ID
	Status     Status
	Limit      int
	Offset     int
}
