package dto

import (
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain/payroll"
)

// --- Requests ---

// PayrollTargetRequest names one employee and the gross amount to pay.
type PayrollTargetRequest struct {
	EmployeeID string `json:"employeeId" binding:"required,uuid"`
	Gross      string `json:"gross" binding:"required"`
}

// RunPayrollRequest for executing a payroll run.
// An empty targets list pays every active employee at base salary.
type RunPayrollRequest struct {
	PeriodFrom time.Time              `json:"periodFrom" binding:"required"`
	PeriodTo   time.Time              `json:"periodTo" binding:"required"`
	Note       string                 `json:"note"`
	Targets    []PayrollTargetRequest `json:"targets"`
}

// ToInput converts to the domain run input.
func (r *RunPayrollRequest) ToInput() (payroll.RunInput, error) {
	targets := make([]payroll.Target, 0, len(r.Targets))
	for _, t := range r.Targets {
		employeeID, err := id.Parse(t.EmployeeID)
		if err != nil {
			return payroll.RunInput{}, apperror.NewValidation("invalid employee id").
				WithDetail("field", "targets.employeeId").
				WithDetail("value", t.EmployeeID)
		}
		gross, err := ParseMoney("targets.gross", t.Gross)
		if err != nil {
			return payroll.RunInput{}, err
		}
		targets = append(targets, payroll.Target{
			EmployeeID: employeeID,
			Gross:      gross,
		})
	}

	return payroll.RunInput{
		PeriodFrom: r.PeriodFrom,
		PeriodTo:   r.PeriodTo,
		Note:       r.Note,
		Targets:    targets,
	}, nil
}

// --- Responses ---

// PayrollDeductionResponse is one automatic debt payment made by a run.
type PayrollDeductionResponse struct {
	ID     string `json:"id"`
	DebtID string `json:"debtId"`
	Amount string `json:"amount"`
	Note   string `json:"note,omitempty"`
}

// PayrollItemResponse is one employee line of a run.
type PayrollItemResponse struct {
	ID             string                      `json:"id"`
	EmployeeID     string                      `json:"employeeId"`
	EmployeeName   string                      `json:"employeeName"`
	Gross          string                      `json:"gross"`
	Deductions     string                      `json:"deductions"`
	Net            string                      `json:"net"`
	DeductionLines []*PayrollDeductionResponse `json:"deductionLines,omitempty"`
}

// PayrollRunResponse represents a payroll run with its items.
type PayrollRunResponse struct {
	DocumentResponse
	Number     string                 `json:"number"`
	PeriodFrom time.Time              `json:"periodFrom"`
	PeriodTo   time.Time              `json:"periodTo"`
	Note       string                 `json:"note,omitempty"`
	Items      []*PayrollItemResponse `json:"items,omitempty"`
}

// FromPayrollRun creates response from domain run.
func FromPayrollRun(run *payroll.Run) *PayrollRunResponse {
	resp := &PayrollRunResponse{
		DocumentResponse: FromBaseDocument(run.BaseDocument),
		Number:           run.Number,
		PeriodFrom:       run.PeriodFrom,
		PeriodTo:         run.PeriodTo,
		Note:             run.Note,
	}
	for _, item := range run.Items {
		itemResp := &PayrollItemResponse{
			ID:           item.ID.String(),
			EmployeeID:   item.EmployeeID.String(),
			EmployeeName: item.EmployeeName,
			Gross:        item.Gross.String(),
			Deductions:   item.Deductions.String(),
			Net:          item.Net.String(),
		}
		for _, d := range item.DeductionLines {
			itemResp.DeductionLines = append(itemResp.DeductionLines, &PayrollDeductionResponse{
				ID:     d.ID.String(),
				DebtID: d.DebtID.String(),
				Amount: d.Amount.String(),
				Note:   d.Note,
			})
		}
		resp.Items = append(resp.Items, itemResp)
	}
	return resp
}

// FromPayrollRuns maps a run list (headers only).
func FromPayrollRuns(items []*payroll.Run) []*PayrollRunResponse {
	out := make([]*PayrollRunResponse, len(items))
	for i, run := range items {
		out[i] = FromPayrollRun(run)
	}
	return out
}
