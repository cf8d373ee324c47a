// Package sales implements the sale lifecycle: creation with line-item stock
// fulfillment, payments, refunds, and cancellation with stock restoration.
package sales

import (
	"context"
	"time"

	"tiendero/internal/core/apperror"
	"tiendero/internal/core/entity"
	"tiendero/internal/core/id"
	"tiendero/internal/core/types"
)

// Status is the sale lifecycle state.
type Status string

const (
	// StatusOpen is the initial state; payments are accepted.
	StatusOpen Status = "OPEN"
	// StatusPaid means payments cover the total. Overpayment is allowed.
	StatusPaid Status = "PAID"
	// StatusCancelled is terminal. Stock has been restored.
	StatusCancelled Status = "CANCELLED"
)

// PaymentMethod classifies how money moved.
type PaymentMethod string

const (
	MethodCash     PaymentMethod = "CASH"
	MethodCard     PaymentMethod = "CARD"
	MethodTransfer PaymentMethod = "TRANSFER"
)

// Valid reports whether the method is one of the known values.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodTransfer:
		return true
	}
	return false
}

// Sale is the document header. Items, payments and refunds are owned
// exclusively by the sale and are append-only.
type Sale struct {
	entity.BaseDocument

	// Number is the human-facing document number (VTA-2026-00001)
	Number string `db:"number" json:"number"`

	WarehouseID  id.ID  `db:"warehouse_id" json:"warehouseId"`
	CustomerName string `db:"customer_name" json:"customerName,omitempty"`
	Note         string `db:"note" json:"note,omitempty"`

	Status Status `db:"status" json:"status"`

	// Subtotal is the sum of line totals; Total = max(0, Subtotal - Discount).
	Subtotal types.MinorUnits `db:"subtotal" json:"subtotal"`
	Discount types.MinorUnits `db:"discount" json:"discount"`
	Total    types.MinorUnits `db:"total" json:"total"`

	// PaidTotal and RefundedTotal are maintained under the sale row lock,
	// so guard checks never re-aggregate the payment tables.
	PaidTotal     types.MinorUnits `db:"paid_total" json:"paidTotal"`
	RefundedTotal types.MinorUnits `db:"refunded_total" json:"refundedTotal"`

	Items    []*Item    `db:"-" json:"items,omitempty"`
	Payments []*Payment `db:"-" json:"payments,omitempty"`
	Refunds  []*Refund  `db:"-" json:"refunds,omitempty"`
}

// NetPaid returns payments minus refunds. Display/metrics only; the status
// field is driven by PaidTotal alone.
func (s *Sale) NetPaid() types.MinorUnits {
	return s.PaidTotal - s.RefundedTotal
}

// IsCancelled reports whether the sale reached the terminal state.
func (s *Sale) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// Item is one sale line. The product fields are a snapshot captured at sale
// time; later product edits never rewrite them.
type Item struct {
	ID     id.ID `db:"id" json:"id"`
	SaleID id.ID `db:"sale_id" json:"saleId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID   id.ID  `db:"product_id" json:"productId"`
	ProductCode string `db:"product_code" json:"productCode"`
	ProductName string `db:"product_name" json:"productName"`
	Gramaje     string `db:"gramaje" json:"gramaje,omitempty"`
	Unit        string `db:"unit" json:"unit"`

	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`
	Quantity  types.Quantity   `db:"quantity" json:"quantity"`
	LineTotal types.MinorUnits `db:"line_total" json:"lineTotal"`
}

// Payment is one immutable payment record.
type Payment struct {
	ID        id.ID            `db:"id" json:"id"`
	SaleID    id.ID            `db:"sale_id" json:"saleId"`
	Amount    types.MinorUnits `db:"amount" json:"amount"`
	Method    PaymentMethod    `db:"method" json:"method"`
	Note      string           `db:"note" json:"note,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	CreatedBy string           `db:"created_by" json:"createdBy"`
}

// Refund is one immutable refund record.
type Refund struct {
	ID        id.ID            `db:"id" json:"id"`
	SaleID    id.ID            `db:"sale_id" json:"saleId"`
	Amount    types.MinorUnits `db:"amount" json:"amount"`
	Method    PaymentMethod    `db:"method" json:"method"`
	Note      string           `db:"note" json:"note,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	CreatedBy string           `db:"created_by" json:"createdBy"`
}

// ItemInput is one requested sale line.
type ItemInput struct {
	ProductID id.ID
	Quantity  types.Quantity
	// UnitPrice overrides the product's current price when set.
	UnitPrice *types.MinorUnits
}

// CreateInput carries the parameters of one sale creation.
type CreateInput struct {
	WarehouseID  id.ID
	CustomerName string
	Note         string
	Discount     types.MinorUnits
	Items        []ItemInput
}

// Validate checks the input before any lock is taken.
func (in CreateInput) Validate(_ context.Context) error {
	if id.IsNil(in.WarehouseID) {
		return apperror.NewValidation("warehouse is required").WithDetail("field", "warehouseId")
	}
	if len(in.Items) == 0 {
		return apperror.NewInvalidInput("sale must have at least one item").
			WithDetail("field", "items")
	}
	if in.Discount.IsNegative() {
		return apperror.NewValidation("discount cannot be negative").
			WithDetail("field", "discount")
	}
	for i, item := range in.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "items").WithDetail("line", i+1)
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewInvalidInput("item quantity must be positive").
				WithDetail("field", "items").WithDetail("line", i+1).
				WithDetail("value", item.Quantity.Int64())
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return apperror.NewValidation("item unit price cannot be negative").
				WithDetail("field", "items").WithDetail("line", i+1)
		}
	}
	return nil
}

// PaymentInput carries the parameters of one payment or refund.
type PaymentInput struct {
	SaleID id.ID
	Amount types.MinorUnits
	Method PaymentMethod
	Note   string
}

// Validate checks the input before any lock is taken.
func (in PaymentInput) Validate(_ context.Context) error {
	if id.IsNil(in.SaleID) {
		return apperror.NewValidation("sale is required").WithDetail("field", "saleId")
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

// ListFilter narrows sale listing.
type ListFilter struct {
	WarehouseID id.ID
	Status      Status
	From        time.Time
	To          time.Time
	Limit       int
	Offset      int
}
