package dto

import (
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/id"
	"tiendero/internal/domain/debts"
)

// --- Requests ---

// CreateDebtRequest for creating debts.
type CreateDebtRequest struct {
	EmployeeID string `json:"employeeId" binding:"required,uuid"`
	Type       string `json:"type" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
	Note       string `json:"note"`
}

// ToInput converts to the domain create input.
func (r *CreateDebtRequest) ToInput() (debts.CreateInput, error) {
	employeeID, err := id.Parse(r.EmployeeID)
	if err != nil {
		return debts.CreateInput{}, apperror.NewValidation("invalid employee id").
			WithDetail("field", "employeeId")
	}
	amount, err := ParseMoney("amount", r.Amount)
	if err != nil {
		return debts.CreateInput{}, err
	}
	return debts.CreateInput{
		EmployeeID: employeeID,
		Type:       debts.Type(r.Type),
		Amount:     amount,
		Note:       r.Note,
	}, nil
}

// DebtPaymentRequest for debt payments.
type DebtPaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
	Method string `json:"method" binding:"required"`
	Note   string `json:"note"`
}

// ToInput converts to the domain payment input.
func (r *DebtPaymentRequest) ToInput(debtID id.ID) (debts.PaymentInput, error) {
	amount, err := ParseMoney("amount", r.Amount)
	if err != nil {
		return debts.PaymentInput{}, err
	}
	return debts.PaymentInput{
		DebtID: debtID,
		Amount: amount,
		Method: debts.PaymentMethod(r.Method),
		Note:   r.Note,
	}, nil
}

// --- Responses ---

// DebtPaymentResponse is one payment record.
type DebtPaymentResponse struct {
	ID        string    `json:"id"`
	Amount    string    `json:"amount"`
	Method    string    `json:"method"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
}

// DebtResponse represents a debt with its payment history.
type DebtResponse struct {
	DocumentResponse
	EmployeeID     string                 `json:"employeeId"`
	Type           string                 `json:"type"`
	Note           string                 `json:"note,omitempty"`
	OriginalAmount string                 `json:"originalAmount"`
	Balance        string                 `json:"balance"`
	Status         string                 `json:"status"`
	Payments       []*DebtPaymentResponse `json:"payments,omitempty"`
}

// FromDebt creates response from domain debt.
func FromDebt(d *debts.Debt) *DebtResponse {
	resp := &DebtResponse{
		DocumentResponse: FromBaseDocument(d.BaseDocument),
		EmployeeID:       d.EmployeeID.String(),
		Type:             string(d.Type),
		Note:             d.Note,
		OriginalAmount:   d.OriginalAmount.String(),
		Balance:          d.Balance.String(),
		Status:           string(d.Status),
	}
	for _, p := range d.Payments {
		resp.Payments = append(resp.Payments, &DebtPaymentResponse{
			ID:        p.ID.String(),
			Amount:    p.Amount.String(),
			Method:    string(p.Method),
			Note:      p.Note,
			CreatedAt: p.CreatedAt,
			CreatedBy: p.CreatedBy,
		})
	}
	return resp
}

// FromDebts maps a debt list (headers only).
func FromDebts(items []*debts.Debt) []*DebtResponse {
	out := make([]*DebtResponse, len(items))
	for i, d := range items {
		out[i] = FromDebt(d)
	}
	return out
}
