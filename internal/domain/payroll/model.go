// Package payroll implements the payroll run engine: one atomic batch that
// pays employees and auto-allocates gross pay against their open debts,
// oldest debt first.
package payroll

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// Run is one payroll execution. Immutable after commit; there is no update
// or delete operation.
type Run struct {
	entity.BaseDocument

	// Number is the human-facing run number (NOM-2026-00001)
	Number string `db:"number" json:"number"`

	PeriodFrom time.Time `db:"period_from" json:"periodFrom"`
	PeriodTo   time.Time `db:"period_to" json:"periodTo"`
	Note       string    `db:"note" json:"note,omitempty"`

	Items []*Item `db:"-" json:"items,omitempty"`
}

// Item is one employee's line in a run.
type Item struct {
	ID    id.ID `db:"id" json:"id"`
	RunID id.ID `db:"run_id" json:"runId"`

	EmployeeID id.ID `db:"employee_id" json:"employeeId"`
	// EmployeeName is a snapshot; later renames never rewrite run history.
	EmployeeName string `db:"employee_name" json:"employeeName"`

	Gross      types.MinorUnits `db:"gross" json:"gross"`
	Deductions types.MinorUnits `db:"deductions" json:"deductions"`
	Net        types.MinorUnits `db:"net" json:"net"`

	DeductionLines []*Deduction `db:"-" json:"deductionLines,omitempty"`
}

// Deduction is one automatic debt payment made by the run.
type Deduction struct {
	ID     id.ID `db:"id" json:"id"`
	ItemID id.ID `db:"item_id" json:"itemId"`

	DebtID id.ID            `db:"debt_id" json:"debtId"`
	Amount types.MinorUnits `db:"amount" json:"amount"`
	Note   string           `db:"note" json:"note,omitempty"`
}

// Target names one employee to pay and the gross amount.
type Target struct {
	EmployeeID id.ID
	Gross      types.MinorUnits
}

// RunInput carries the parameters of one payroll run.
// An empty Targets list means every active employee at base salary,
// ordered by name.
type RunInput struct {
	PeriodFrom time.Time
	PeriodTo   time.Time
	Note       string
	Targets    []Target
}

// Validate checks the input before any row is touched.
func (in RunInput) Validate(_ context.Context) error {
	if in.PeriodFrom.IsZero() || in.PeriodTo.IsZero() {
		return apperror.NewValidation("payroll period is required").
			WithDetail("field", "period")
	}
	if in.PeriodTo.Before(in.PeriodFrom) {
		return apperror.NewValidation("period end is before period start").
			WithDetail("field", "period")
	}
	for i, t := range in.Targets {
		if id.IsNil(t.EmployeeID) {
			return apperror.NewInvalidInput("employee is required").
				WithDetail("field", "targets").WithDetail("index", i)
		}
		if t.Gross.IsNegative() {
			return apperror.NewInvalidInput("gross amount cannot be negative").
				WithDetail("field", "targets").WithDetail("index", i).
				WithDetail("value", t.Gross.String())
		}
	}
	return nil
}

// ListFilter narrows run listing.
type ListFilter struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
